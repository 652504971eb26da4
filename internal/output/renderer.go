package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/atikulmunna/pixelog/internal/model"
)

// Renderer writes PixelEvent values to an output stream.
type Renderer interface {
	Render(ev model.PixelEvent) error
}

// Quote prepares a value for a combined log field. "-" is the empty marker and
// stays bare; anything else is double-quoted with inner quotes written as %22.
func Quote(s string) string {
	if s == "-" {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, "%22") + `"`
}

// Format renders one event as an Apache/nginx combined log line, without newline.
// Status and size are not tracked by the pixel and are fixed at 200 and "-".
func Format(ev model.PixelEvent) string {
	var b strings.Builder
	b.WriteString(ev.ClientIP)
	b.WriteString(" - - [")
	b.WriteString(ev.Date.Format("02/Jan/2006"))
	b.WriteByte(':')
	b.WriteString(ev.Time)
	b.WriteString(" +0000] ")
	b.WriteString(Quote("GET " + ev.Path + " HTTP/1.1"))
	b.WriteString(" 200 - ")
	b.WriteString(Quote(ev.Referrer))
	b.WriteByte(' ')
	b.WriteString(Quote(ev.UserAgent))
	return b.String()
}

// ---------------------------------------------------------------------------
// Combined Renderer
// ---------------------------------------------------------------------------

// CombinedRenderer writes one combined log line per event.
// Output is buffered; call Flush before the writer is closed or read.
type CombinedRenderer struct {
	w *bufio.Writer
}

// NewCombinedRenderer returns a Renderer writing to w.
func NewCombinedRenderer(w io.Writer) *CombinedRenderer {
	return &CombinedRenderer{w: bufio.NewWriter(w)}
}

func (r *CombinedRenderer) Render(ev model.PixelEvent) error {
	if _, err := r.w.WriteString(Format(ev)); err != nil {
		return err
	}
	return r.w.WriteByte('\n')
}

// Flush writes any buffered lines.
func (r *CombinedRenderer) Flush() error {
	return r.w.Flush()
}
