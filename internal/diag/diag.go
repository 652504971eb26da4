// Package diag carries per-line diagnostics from the conversion pipeline to
// whatever reports them.
package diag

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Kind classifies a diagnostic.
type Kind int

const (
	// Structural marks a single malformed line; the line is skipped.
	Structural Kind = iota
	// SchemaMissing marks data before any #Fields directive; the rest of the file is skipped.
	SchemaMissing
	// IOFailure marks an unreadable file; the run stops.
	IOFailure
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case SchemaMissing:
		return "schema_missing"
	case IOFailure:
		return "io_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Diagnostic describes one input problem.
type Diagnostic struct {
	Kind    Kind
	Source  string
	Line    int
	Message string
}

// String renders the diagnostic as "source:line: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.Source, d.Line, d.Message)
}

// Sink receives diagnostics.
type Sink interface {
	Report(d Diagnostic)
}

// ---------------------------------------------------------------------------
// Text Sink
// ---------------------------------------------------------------------------

// TextSink writes one "source:line: message" line per diagnostic.
type TextSink struct {
	w     io.Writer
	loc   lipgloss.Style
	color bool
}

// NewTextSink returns a TextSink writing to w. With color enabled the location
// is highlighted when w is a terminal; otherwise the output is plain.
func NewTextSink(w io.Writer, color bool) *TextSink {
	r := lipgloss.NewRenderer(w)
	return &TextSink{
		w:     w,
		loc:   r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		color: color,
	}
}

func (s *TextSink) Report(d Diagnostic) {
	loc := fmt.Sprintf("%s:%d:", d.Source, d.Line)
	if s.color {
		loc = s.loc.Render(loc)
	}
	fmt.Fprintf(s.w, "%s %s\n", loc, d.Message)
}

// ---------------------------------------------------------------------------
// Log Sink
// ---------------------------------------------------------------------------

// LogSink forwards diagnostics to a zap logger at debug level.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink returns a Sink logging through log.
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Report(d Diagnostic) {
	s.log.Debug("Skipped input",
		zap.Stringer("kind", d.Kind),
		zap.String("source", d.Source),
		zap.Int("line", d.Line),
		zap.String("reason", d.Message))
}

// ---------------------------------------------------------------------------
// Recorder
// ---------------------------------------------------------------------------

// Recorder keeps every diagnostic in memory.
type Recorder struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, d)
}

// Diagnostics returns a copy of what has been reported so far.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.diags...)
}

// ---------------------------------------------------------------------------
// Fan-out
// ---------------------------------------------------------------------------

type multiSink []Sink

func (m multiSink) Report(d Diagnostic) {
	for _, s := range m {
		s.Report(d)
	}
}

// Multi returns a Sink that reports to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var m multiSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}
