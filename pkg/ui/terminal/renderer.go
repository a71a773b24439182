// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"

	"github.com/arthur-debert/modsync/pkg/ui/display"
	"github.com/arthur-debert/modsync/pkg/ui/styles"
)

// Renderer provides colored output using the styles registry
type Renderer struct {
	output io.Writer
	styles *styles.Registry
}

// New creates a new terminal renderer
func New(w io.Writer) *Renderer {
	return &Renderer{output: w, styles: styles.Default()}
}

// RenderReport renders a sync report with styling
func (r *Renderer) RenderReport(report *display.Report) error {
	return display.Write(r.output, report, r.styles.Render)
}

// RenderError renders an error with appropriate formatting
func (r *Renderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(r.output, "%s %v\n", r.styles.Render("Error", "Error:"), err)
	return werr
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, r.styles.Render("Info", msg))
	return err
}
