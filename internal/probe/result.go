package probe

import (
	"errors"

	"github.com/recondor/recondor/internal/engine"
)

// maxDiagnostic bounds error messages carried in module results.
const maxDiagnostic = 500

// failureResult maps a taxonomy error to a module result: timeouts become
// status=timeout, everything else status=error. An optional payload keeps
// the module's empty collections present in the serialized result.
func failureResult(err error, data any) engine.ModuleResult {
	status := engine.ResultError
	if errors.Is(err, ErrToolTimeout) {
		status = engine.ResultTimeout
	}
	return engine.ModuleResult{
		Status: status,
		Error:  truncate(err.Error(), maxDiagnostic),
		Data:   data,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
