package pixel

import "net/url"

// Query holds the parameters of a cs-uri-query field, in the order they were given.
// Blank values are dropped, so a key maps only to non-empty values.
type Query map[string][]string

// ParseQuery decodes a query string once. Pairs that fail to decode are skipped
// rather than failing the whole query.
func ParseQuery(raw string) Query {
	// ParseQuery still returns every pair it could decode alongside the first error.
	values, _ := url.ParseQuery(raw)

	q := make(Query, len(values))
	for key, vs := range values {
		for _, v := range vs {
			if v != "" {
				q[key] = append(q[key], v)
			}
		}
	}
	return q
}

// First returns the first value for key. The first occurrence wins when a key repeats.
func (q Query) First(key string) (string, bool) {
	vs := q[key]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
