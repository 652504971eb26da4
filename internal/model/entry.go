package model

import (
	"fmt"
	"time"
)

// RawLine is one line read from an input file.
type RawLine struct {
	Source string // originating file path
	Number int    // 1-based line number within Source
	Text   string // line text, trailing whitespace removed
}

// Record maps field names from the active #Fields directive to the values of one data line.
type Record map[string]string

// PixelEvent is a tracked page view extracted from a pixel request.
type PixelEvent struct {
	ClientIP  string
	Date      time.Time
	Time      string // HH:MM:SS as logged, passed through verbatim
	Path      string
	Referrer  string // "-" when not tracked
	UserAgent string
}

// Counters accumulate over a whole run.
type Counters struct {
	Files  int // files opened
	Lines  int // data lines seen, including skipped ones
	Output int // combined log lines written
}

// Average returns lines per file, or 0 when no files were seen.
func (c Counters) Average() float64 {
	if c.Files == 0 {
		return 0
	}
	return float64(c.Lines) / float64(c.Files)
}

// Summary renders the end-of-run line written to the diagnostic stream.
func (c Counters) Summary() string {
	return fmt.Sprintf("processed %d lines from %d files (avg %.2f lines/file), output %d lines",
		c.Lines, c.Files, c.Average(), c.Output)
}
