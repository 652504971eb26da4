package reader

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/atikulmunna/pixelog/internal/model"
)

// MaxLineSize bounds a single input line. Longer lines fail the file with bufio.ErrTooLong.
const MaxLineSize = 10 * 1024 * 1024

// ErrSkipFile is returned by a Handler to abandon the rest of the current file.
var ErrSkipFile = errors.New("skip rest of file")

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	bzip2Magic = []byte("BZh")
)

// Handler receives the contents of the files being read.
type Handler interface {
	// StartFile is called once per file, before any of its lines.
	StartFile(name string)
	// HandleLine is called for each line. Returning ErrSkipFile moves on to the
	// next file; any other error stops the reader.
	HandleLine(line model.RawLine) error
}

// ReadError reports a file that could not be opened, decompressed or read.
type ReadError struct {
	Path string
	Line int // last line read successfully, 0 if none
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Reader streams lines from a sequence of possibly compressed files.
type Reader struct {
	log *zap.Logger
}

// New creates a Reader.
func New(log *zap.Logger) *Reader {
	return &Reader{log: log}
}

// Run reads paths in order and feeds every line to h. It stops at the first
// file that cannot be read.
func (r *Reader) Run(ctx context.Context, paths []string, h Handler) error {
	for _, path := range paths {
		if err := r.readFile(ctx, path, h); err != nil {
			return err
		}
	}
	return nil
}

// readFile emits the lines of one file.
func (r *Reader) readFile(ctx context.Context, path string, h Handler) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return &ReadError{Path: path, Err: err}
	}

	rc, err := decompress(f)
	if err != nil {
		return &ReadError{Path: path, Err: multierr.Append(err, f.Close())}
	}

	line := 0
	defer func() {
		if cerr := multierr.Combine(rc.Close(), f.Close()); cerr != nil && err == nil {
			err = &ReadError{Path: path, Line: line, Err: cerr}
		}
	}()

	r.log.Debug("Reading file", zap.String("path", path))
	h.StartFile(path)

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++

		err := h.HandleLine(model.RawLine{
			Source: path,
			Number: line,
			Text:   strings.TrimRightFunc(scanner.Text(), unicode.IsSpace),
		})
		if errors.Is(err, ErrSkipFile) {
			r.log.Debug("Skipping rest of file", zap.String("path", path), zap.Int("line", line))
			return nil
		}
		if err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return &ReadError{Path: path, Line: line, Err: err}
	}
	return nil
}

// decompress sniffs the stream's magic bytes and wraps it in the matching decoder.
// Unrecognised streams are read as plain text.
func decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zr.IOReadCloser(), nil
	case bytes.HasPrefix(magic, bzip2Magic):
		return io.NopCloser(bzip2.NewReader(br)), nil
	default:
		return io.NopCloser(br), nil
	}
}
