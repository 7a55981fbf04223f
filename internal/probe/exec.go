// Package probe implements the per-module tool adapters. Each adapter wraps
// one external process or set of outbound HTTP requests with a bounded
// timeout, parses the raw output and normalizes it into the canonical
// engine.ModuleResult schema.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Failure classes recovered locally at the adapter boundary.
var (
	ErrToolUnavailable = errors.New("tool unavailable")
	ErrToolTimeout     = errors.New("tool timed out")
)

// maxToolOutput bounds captured external tool output.
const maxToolOutput = 2 * 1024 * 1024

// execFunc runs an external tool and returns its combined output. Adapters
// hold one so tests can substitute captured tool output for the real binary.
type execFunc func(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)

// runTool invokes an external binary with a bounded timeout, capturing and
// capping its combined output. A missing binary maps to ErrToolUnavailable,
// a deadline hit to ErrToolTimeout; both carry any partial output back.
func runTool(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", fmt.Errorf("%w: %s not found in PATH", ErrToolUnavailable, name)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	raw, err := cmd.CombinedOutput()
	if len(raw) > maxToolOutput {
		raw = raw[:maxToolOutput]
	}
	out := string(raw)

	if runCtx.Err() == context.DeadlineExceeded {
		return out, fmt.Errorf("%w: %s exceeded %s", ErrToolTimeout, name, timeout)
	}
	if err != nil {
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
