package diagram

import (
	"fmt"
	"io"
)

// Output formats.
const (
	FormatPlantUML = "plantuml"
	FormatMermaid  = "mermaid"
)

// Renderer is a Sink that writes a diagram and must be closed.
type Renderer interface {
	Sink
	Close() error
}

// NewRenderer returns the renderer for format.
func NewRenderer(format string, w io.Writer) (Renderer, error) {
	switch format {
	case FormatPlantUML:
		return NewPlantUMLWriter(w), nil
	case FormatMermaid:
		return NewMermaidWriter(w, false), nil
	default:
		return nil, fmt.Errorf("unknown diagram format %q", format)
	}
}

// Extension returns the conventional file extension for format.
func Extension(format string) string {
	if format == FormatMermaid {
		return ".mmd"
	}
	return ".puml"
}
