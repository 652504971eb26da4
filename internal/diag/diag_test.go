package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTextSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewTextSink(&buf, false)

	s.Report(Diagnostic{Kind: Structural, Source: "logs/a.gz", Line: 7, Message: "invalid date: x"})
	s.Report(Diagnostic{Kind: SchemaMissing, Source: "b.gz", Line: 1, Message: "#Fields directive not found at start of file"})

	assert.Equal(t,
		"logs/a.gz:7: invalid date: x\n"+
			"b.gz:1: #Fields directive not found at start of file\n",
		buf.String())
}

func TestRecorderAndMulti(t *testing.T) {
	var rec Recorder
	var buf bytes.Buffer

	s := Multi(&rec, nil, NewTextSink(&buf, false))
	d := Diagnostic{Kind: Structural, Source: "a.gz", Line: 3, Message: "boom"}
	s.Report(d)

	assert.Equal(t, []Diagnostic{d}, rec.Diagnostics())
	assert.Equal(t, "a.gz:3: boom\n", buf.String())
	assert.Equal(t, "a.gz:3: boom", d.String())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewLogSink(zap.New(core))

	s.Report(Diagnostic{Kind: IOFailure, Source: "a.gz", Line: 0, Message: "unexpected EOF"})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "io_failure", fields["kind"])
		assert.Equal(t, "a.gz", fields["source"])
		assert.Equal(t, "unexpected EOF", fields["reason"])
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "structural", Structural.String())
	assert.Equal(t, "schema_missing", SchemaMissing.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
