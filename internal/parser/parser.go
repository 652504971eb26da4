package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atikulmunna/pixelog/internal/model"
)

// FieldsDirective names the directive that declares the column layout of a file.
const FieldsDirective = "Fields"

var (
	// ErrMalformedDirective is returned for a "#" line without a ':' separator.
	ErrMalformedDirective = errors.New("missing ':' in directive line")

	// ErrNoSchema is returned for a data line seen before any #Fields directive in its file.
	ErrNoSchema = errors.New("#Fields directive not found at start of file")
)

// FieldCountError reports a data line whose tab-separated field count differs from the schema.
type FieldCountError struct {
	Got  int
	Want int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("number of fields (%d) != expected number (%d)", e.Got, e.Want)
}

// MissingFieldsError reports required columns that the schema does not declare.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing fields: " + strings.Join(e.Fields, ", ")
}

// ---------------------------------------------------------------------------
// Directives
// ---------------------------------------------------------------------------

// Directive is a parsed "#Name: value" header line.
type Directive struct {
	Name  string
	Value string
}

// IsDirective reports whether a line is a header directive rather than data.
func IsDirective(text string) bool {
	return strings.HasPrefix(text, "#")
}

// ParseDirective splits a directive line on its first colon.
// The name is kept as written; the value is trimmed.
func ParseDirective(text string) (Directive, error) {
	name, value, ok := strings.Cut(strings.TrimPrefix(text, "#"), ":")
	if !ok {
		return Directive{}, ErrMalformedDirective
	}
	return Directive{Name: name, Value: strings.TrimSpace(value)}, nil
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// Schema is the ordered column list declared by a #Fields directive.
type Schema struct {
	Fields []string
	names  map[string]struct{}
}

// NewSchema builds a Schema from field names in column order.
func NewSchema(fields []string) *Schema {
	names := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		names[f] = struct{}{}
	}
	return &Schema{Fields: fields, names: names}
}

// Has reports whether the schema declares a column.
func (s *Schema) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Missing returns the names in required that the schema does not declare, in the order given.
func (s *Schema) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if !s.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Require returns a *MissingFieldsError unless every required column is declared.
func (s *Schema) Require(required []string) error {
	if missing := s.Missing(required); len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Parse splits a data line on tabs and zips it against the schema.
func (s *Schema) Parse(text string) (model.Record, error) {
	values := strings.Split(text, "\t")
	if len(values) != len(s.Fields) {
		return nil, &FieldCountError{Got: len(values), Want: len(s.Fields)}
	}

	rec := make(model.Record, len(values))
	for i, name := range s.Fields {
		rec[name] = values[i]
	}
	return rec, nil
}

// ---------------------------------------------------------------------------
// Tracker
// ---------------------------------------------------------------------------

// Tracker holds the schema of the file currently being read.
type Tracker struct {
	schema *Schema
}

// Reset forgets the active schema. Call it at every file boundary.
func (t *Tracker) Reset() {
	t.schema = nil
}

// Apply records a #Fields directive; other directives are ignored.
func (t *Tracker) Apply(d Directive) {
	if d.Name == FieldsDirective {
		t.schema = NewSchema(strings.Fields(d.Value))
	}
}

// Schema returns the active schema, or ErrNoSchema if the file has not declared one yet.
func (t *Tracker) Schema() (*Schema, error) {
	if t.schema == nil {
		return nil, ErrNoSchema
	}
	return t.schema, nil
}
