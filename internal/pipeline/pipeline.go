// Package pipeline converts CloudFront access logs into combined log lines.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/atikulmunna/pixelog/internal/diag"
	"github.com/atikulmunna/pixelog/internal/model"
	"github.com/atikulmunna/pixelog/internal/output"
	"github.com/atikulmunna/pixelog/internal/parser"
	"github.com/atikulmunna/pixelog/internal/pixel"
	"github.com/atikulmunna/pixelog/internal/reader"
)

var (
	// ErrNoFiles is returned when a run had no input files.
	ErrNoFiles = errors.New("no files processed")

	// ErrNoSchema is returned when data arrived before any #Fields directive had
	// been seen in the run, so the first lines of input could not be parsed.
	ErrNoSchema = errors.New("no #Fields directive before first data line")
)

// Options configures a Converter.
type Options struct {
	Renderer  output.Renderer
	Sink      diag.Sink
	Logger    *zap.Logger
	PixelPath string // defaults to pixel.DefaultPath
}

// Converter feeds lines from a reader through schema tracking, record parsing,
// pixel filtering and rendering. It is not safe for concurrent use.
type Converter struct {
	reader   *reader.Reader
	tracker  parser.Tracker
	filter   *pixel.Filter
	renderer output.Renderer
	sink     diag.Sink
	log      *zap.Logger

	counters   model.Counters
	schemaSeen bool // a #Fields directive has been applied during the run
	noSchema   bool // data arrived before any schema was ever established
}

// New creates a Converter.
func New(opts Options) *Converter {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sink := opts.Sink
	if sink == nil {
		sink = diag.Multi()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = output.NewCombinedRenderer(io.Discard)
	}
	return &Converter{
		reader:   reader.New(log),
		filter:   pixel.NewFilter(opts.PixelPath),
		renderer: renderer,
		sink:     sink,
		log:      log,
	}
}

// Counters returns the totals accumulated so far.
func (c *Converter) Counters() model.Counters {
	return c.counters
}

// Convert processes paths in order. Counters accumulate across calls.
// Only unreadable files and cancellation produce an error.
func (c *Converter) Convert(ctx context.Context, paths []string) error {
	err := c.reader.Run(ctx, paths, c)
	if ferr := c.flush(); err == nil {
		err = ferr
	}
	return err
}

// Summary writes the end-of-run counters line.
func (c *Converter) Summary(w io.Writer) {
	fmt.Fprintln(w, c.counters.Summary())
}

// Err reports how the run as a whole should end, ignoring read errors.
func (c *Converter) Err() error {
	switch {
	case c.counters.Files == 0:
		return ErrNoFiles
	case c.noSchema:
		return ErrNoSchema
	default:
		return nil
	}
}

// StartFile implements reader.Handler.
func (c *Converter) StartFile(name string) {
	if err := c.flush(); err != nil {
		c.log.Warn("Failed to flush output", zap.Error(err))
	}
	c.tracker.Reset()
	c.counters.Files++
}

// HandleLine implements reader.Handler.
func (c *Converter) HandleLine(line model.RawLine) error {
	if line.Text == "" {
		return nil
	}

	if parser.IsDirective(line.Text) {
		d, err := parser.ParseDirective(line.Text)
		if err != nil {
			c.report(diag.Structural, line, err)
			return nil
		}
		c.tracker.Apply(d)
		if d.Name == parser.FieldsDirective {
			c.schemaSeen = true
		}
		return nil
	}

	schema, err := c.tracker.Schema()
	if err != nil {
		c.report(diag.SchemaMissing, line, err)
		if !c.schemaSeen {
			c.noSchema = true
		}
		return reader.ErrSkipFile
	}

	c.counters.Lines++

	rec, err := schema.Parse(line.Text)
	if err != nil {
		c.report(diag.Structural, line, err)
		return nil
	}
	if err := schema.Require(pixel.RequiredFields); err != nil {
		c.report(diag.Structural, line, err)
		return nil
	}

	ev, ok, err := c.filter.Match(rec)
	if err != nil {
		c.report(diag.Structural, line, err)
		return nil
	}
	if !ok {
		return nil
	}

	if err := c.renderer.Render(ev); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	c.counters.Output++
	return nil
}

func (c *Converter) report(kind diag.Kind, line model.RawLine, err error) {
	c.sink.Report(diag.Diagnostic{
		Kind:    kind,
		Source:  line.Source,
		Line:    line.Number,
		Message: err.Error(),
	})
}

type flusher interface {
	Flush() error
}

func (c *Converter) flush() error {
	if f, ok := c.renderer.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// ReportFailure reports a read failure to the sink as an IOFailure
// diagnostic. Other errors are ignored. It returns whether err was reported.
func (c *Converter) ReportFailure(err error) bool {
	var readErr *reader.ReadError
	if !errors.As(err, &readErr) {
		return false
	}
	c.sink.Report(diag.Diagnostic{
		Kind:    diag.IOFailure,
		Source:  readErr.Path,
		Line:    readErr.Line,
		Message: readErr.Err.Error(),
	})
	return true
}

// Run converts paths, writes the summary to diagnostics and reports how the run ended.
// A read failure is reported to the sink and returned without a summary.
func Run(ctx context.Context, paths []string, opts Options, diagnostics io.Writer) error {
	c := New(opts)
	if err := c.Convert(ctx, paths); err != nil {
		c.ReportFailure(err)
		return err
	}

	c.Summary(diagnostics)
	return c.Err()
}
