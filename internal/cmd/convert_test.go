package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/pixelog/internal/pipeline"
	"github.com/atikulmunna/pixelog/internal/reader"
)

func runCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errs bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errs)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errs.String(), err
}

func TestConvertCmdFlags(t *testing.T) {
	t.Parallel()

	cmd := newConvertCmd(&app{})

	days := cmd.Flags().Lookup("days")
	require.NotNil(t, days)
	assert.Equal(t, "60", days.DefValue)

	pixelPath := cmd.Flags().Lookup("pixel-path")
	require.NotNil(t, pixelPath)
	assert.Equal(t, "/pixel.png", pixelPath.DefValue)
}

func TestConvertCmdFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeGzip(t, dir, "a.gz", fieldsLine, hit("2024-01-01", "1.2.3.4", "u=%252Fhome&r=https%253A%252F%252Fex.com"))
	b := writeGzip(t, dir, "b.gz", fieldsLine, hit("2024-01-02", "5.6.7.8", "u=%252Fabout"), "short\tline")

	stdout, stderr, err := runCmd(t, "convert", "--no-color", a, b)
	require.NoError(t, err)

	assert.Equal(t,
		`1.2.3.4 - - [01/Jan/2024:12:00:00 +0000] "GET /home HTTP/1.1" 200 - "https://ex.com" "Mozilla/5.0"`+"\n"+
			`5.6.7.8 - - [02/Jan/2024:12:00:00 +0000] "GET /about HTTP/1.1" 200 - - "Mozilla/5.0"`+"\n",
		stdout)
	assert.Equal(t,
		b+":3: number of fields (2) != expected number (8)\n"+
			"processed 3 lines from 2 files (avg 1.50 lines/file), output 2 lines\n",
		stderr)
}

func TestConvertCmdCustomPixelPath(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeGzip(t, dir, "a.gz", fieldsLine,
		hit("2024-01-01", "1.2.3.4", "u=%252Fhome"),
		hit("2024-01-01", "1.2.3.4", "u=%252Fother"),
	)
	lines := []string{fieldsLine, "2024-01-01\t12:00:00\t9.9.9.9\t/t.gif\t-\tua\tu=%252Fgif\t-"}
	b := writeGzip(t, dir, "b.gz", lines...)

	stdout, _, err := runCmd(t, "convert", "--pixel-path", "/t.gif", a, b)
	require.NoError(t, err)
	assert.Equal(t, `9.9.9.9 - - [01/Jan/2024:12:00:00 +0000] "GET /gif HTTP/1.1" 200 - - "ua"`+"\n", stdout)
}

func TestConvertCmdDirectoryWindow(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeGzip(t, dir, "E2ABC.2000-01-01-00.old.gz", fieldsLine, hit("2000-01-01", "1.1.1.1", "u=%252Fold"))

	stdout, stderr, err := runCmd(t, "convert", dir)
	assert.ErrorIs(t, err, pipeline.ErrNoFiles)
	assert.Empty(t, stdout)
	assert.Equal(t, "processed 0 lines from 0 files (avg 0.00 lines/file), output 0 lines\n", stderr)
}

func TestConvertCmdDaysFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PIXELOG_DAYS", "100000")
	dir := t.TempDir()
	writeGzip(t, dir, "E2ABC.2000-01-01-00.old.gz", fieldsLine, hit("2000-01-01", "1.1.1.1", "u=%252Fold"))

	stdout, _, err := runCmd(t, "convert", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "GET /old HTTP/1.1")
}

func TestConvertCmdUnreadableFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.gz")

	_, stderr, err := runCmd(t, "convert", "--no-color", missing)

	var reported *reportedError
	require.ErrorAs(t, err, &reported, "the failure is already shown as a diagnostic")
	var readErr *reader.ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Contains(t, stderr, missing+":0: ")
	assert.NotContains(t, stderr, "processed")
}

func TestConvertCmdSchemaMissing(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeGzip(t, dir, "a.gz", hit("2024-01-01", "1.2.3.4", "u=%252Fhome"))

	_, stderr, err := runCmd(t, "convert", "--no-color", a)
	assert.ErrorIs(t, err, pipeline.ErrNoSchema)
	assert.Contains(t, stderr, a+":1: #Fields directive not found at start of file\n")
}

func TestConvertCmdRequiresArgs(t *testing.T) {
	isolate(t)
	_, _, err := runCmd(t, "convert")
	assert.Error(t, err)
}

func TestConvertCmdConfigFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "pixelog.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("pixel-path: /t.gif\n"), 0o644))
	a := writeGzip(t, dir, "a.gz", fieldsLine, "2024-01-01\t12:00:00\t9.9.9.9\t/t.gif\t-\tua\tu=%252Fgif\t-")

	stdout, _, err := runCmd(t, "convert", "--config", cfgFile, a)
	require.NoError(t, err)
	assert.Contains(t, stdout, "GET /gif HTTP/1.1")
}
