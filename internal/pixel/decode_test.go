package pixel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/plain/path", want: "/plain/path"},
		{in: "%2Fhome", want: "/home"},
		{in: "%2fhome", want: "/home"},
		{in: "a+b", want: "a+b"},
		{in: "100%", want: "100%"},
		{in: "%zz%2", want: "%zz%2"},
		{in: "%E2%82%AC", want: "€"},
		{in: "bad%FFbyte", want: "bad�byte"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentDecode(tt.in))
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "escaped spaces", in: "Mozilla/5.0%2520(X11;%2520Linux)", want: "Mozilla/5.0 (X11; Linux)"},
		{name: "escaped backslash", in: `a%255Cb`, want: `a\b`},
		{name: "escaped quote marker", in: "x%2522y", want: "x%y"},
		{name: "double escaped percent", in: "%252520", want: "%2520"},
		{name: "plain", in: "curl/8.0", want: "curl/8.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unescape(tt.in))
		})
	}
}

// The replacements feed each other, so only the declared order is correct.
func TestUnescapeOrderMatters(t *testing.T) {
	const in = "%252220"

	assert.Equal(t, " ", Unescape(in))

	reversed := in
	for i := len(vendorUnescapes) - 1; i >= 0; i-- {
		reversed = strings.ReplaceAll(reversed, vendorUnescapes[i].old, vendorUnescapes[i].new)
	}
	assert.Equal(t, "%20", PercentDecode(reversed))
	assert.NotEqual(t, Unescape(in), PercentDecode(reversed))
}
