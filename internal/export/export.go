// Package export handles exporting negotiation results to various formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/parleylab/parley/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Exporter defines the interface for exporting negotiation results.
type Exporter interface {
	Export(result *core.Result, w io.Writer) error
	FileExtension() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(result *core.Result, ext string) string {
	name := result.Scenario
	if len(name) > 50 {
		name = name[:50]
	}
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	name = replacer.Replace(name)

	id := result.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("negotiation_%s_%s.%s", name, id, ext)
}

func formatUtility(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
