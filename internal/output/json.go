package output

import (
	"encoding/json"
	"io"

	"github.com/recondor/recondor/internal/engine"
)

// WriteJSON writes the finished scan record as indented JSON to w.
func WriteJSON(w io.Writer, scan *engine.Scan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(scan)
}
