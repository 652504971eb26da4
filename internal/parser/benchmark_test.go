package parser

import (
	"strings"
	"testing"
)

var cloudfrontFields = strings.Fields("date time x-edge-location sc-bytes c-ip cs-method cs(Host) " +
	"cs-uri-stem sc-status cs(Referer) cs(User-Agent) cs-uri-query cs(Cookie) x-edge-result-type " +
	"x-edge-request-id x-host-header cs-protocol cs-bytes time-taken x-forwarded-for ssl-protocol " +
	"ssl-cipher x-edge-response-result-type cs-protocol-version fle-status fle-encrypted-fields")

// BenchmarkSchemaParse measures splitting a full CloudFront line into a Record.
func BenchmarkSchemaParse(b *testing.B) {
	s := NewSchema(cloudfrontFields)
	values := make([]string, len(cloudfrontFields))
	for i := range values {
		values[i] = "-"
	}
	values[0] = "2024-01-01"
	values[7] = "/pixel.png"
	line := strings.Join(values, "\t")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := s.Parse(line); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseDirective measures header directive splitting.
func BenchmarkParseDirective(b *testing.B) {
	line := "#Fields: " + strings.Join(cloudfrontFields, " ")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseDirective(line); err != nil {
			b.Fatal(err)
		}
	}
}
