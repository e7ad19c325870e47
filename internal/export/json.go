package export

import (
	"encoding/json"
	"io"

	"github.com/parleylab/parley/internal/core"
)

// JSONExporter exports negotiation results as indented JSON.
type JSONExporter struct{}

// Export writes the result as JSON.
func (e *JSONExporter) Export(result *core.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}
