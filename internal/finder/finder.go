// Package finder chooses which log files a run reads.
package finder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDays is how far back a directory scan reaches by default.
const DefaultDays = 60

// Pattern matches the file names a directory scan considers.
const Pattern = "*.gz"

// Cutoff returns the oldest file date a scan with the given window accepts.
// File names carry no zone, so now is compared by its wall clock.
func Cutoff(now time.Time, days int) time.Time {
	wall := time.Date(now.Year(), now.Month(), now.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
	return wall.AddDate(0, 0, -days)
}

// FileDate extracts the date CloudFront embeds in a log file name:
// the first ten characters of the second dot-separated token, as in
// "E2ABC.2024-01-01-00.abcd1234.gz".
func FileDate(name string) (time.Time, bool) {
	parts := strings.Split(name, ".")
	if len(parts) < 2 || len(parts[1]) < 10 {
		return time.Time{}, false
	}
	date, err := time.Parse("2006-01-02", parts[1][:10])
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// Accept reports whether a file name is a compressed log dated no earlier than cutoff.
func Accept(name string, cutoff time.Time) bool {
	if ok, _ := doublestar.Match(Pattern, name); !ok {
		return false
	}
	date, ok := FileDate(name)
	return ok && !date.Before(cutoff)
}

// ScanDir lists dir and returns the accepted files in directory-listing order.
func ScanDir(dir string, days int, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	cutoff := Cutoff(now, days)
	var files []string
	for _, e := range entries {
		if e.IsDir() || !Accept(e.Name(), cutoff) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// Select turns command-line arguments into an ordered file list. A single
// directory argument is scanned; otherwise arguments are taken as files, with
// glob patterns (including "**") expanded in place.
func Select(args []string, days int, now time.Time) ([]string, error) {
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			return ScanDir(args[0], days, now)
		}
	}

	var files []string
	for _, arg := range args {
		if !hasMeta(arg) {
			files = append(files, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", arg, err)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, `*?[{`)
}
