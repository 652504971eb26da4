package pixel

import (
	"strings"
	"time"

	"github.com/atikulmunna/pixelog/internal/model"
)

// DefaultPath is the URI stem of the tracking beacon.
const DefaultPath = "/pixel.png"

// CloudFront column names used by the filter.
const (
	FieldDate         = "date"
	FieldTime         = "time"
	FieldClientIP     = "c-ip"
	FieldURIStem      = "cs-uri-stem"
	FieldReferer      = "cs(Referer)"
	FieldUserAgent    = "cs(User-Agent)"
	FieldURIQuery     = "cs-uri-query"
	FieldForwardedFor = "x-forwarded-for"
)

// RequiredFields must all be declared by a file's #Fields directive.
var RequiredFields = []string{
	FieldDate, FieldTime, FieldClientIP, FieldURIStem,
	FieldReferer, FieldUserAgent, FieldURIQuery, FieldForwardedFor,
}

const dateLayout = "2006-01-02"

// DateError reports a record whose date column does not parse.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return "invalid date: " + e.Value
}

// Filter selects pixel requests that carry an absolute tracked path.
type Filter struct {
	path string
}

// NewFilter returns a Filter for the given beacon path, or DefaultPath when empty.
func NewFilter(path string) *Filter {
	if path == "" {
		path = DefaultPath
	}
	return &Filter{path: path}
}

// Path returns the beacon path the filter matches.
func (f *Filter) Path() string { return f.path }

// Match extracts a PixelEvent from a record. Ordinary traffic yields ok == false
// and no error; only a corrupt date is reported.
func (f *Filter) Match(rec model.Record) (ev model.PixelEvent, ok bool, err error) {
	if rec[FieldURIStem] != f.path {
		return ev, false, nil
	}

	query := ParseQuery(rec[FieldURIQuery])
	u, found := query.First("u")
	if !found || !strings.HasPrefix(u, "%2F") {
		return ev, false, nil
	}

	referrer := "-"
	if r, found := query.First("r"); found {
		referrer = PercentDecode(r)
	}

	date, err := time.Parse(dateLayout, rec[FieldDate])
	if err != nil {
		return ev, false, &DateError{Value: rec[FieldDate]}
	}

	ip := rec[FieldForwardedFor]
	if ip == "-" {
		ip = rec[FieldClientIP]
	}

	return model.PixelEvent{
		ClientIP:  ip,
		Date:      date,
		Time:      rec[FieldTime],
		Path:      PercentDecode(u),
		Referrer:  referrer,
		UserAgent: Unescape(rec[FieldUserAgent]),
	}, true, nil
}
