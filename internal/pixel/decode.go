package pixel

import "strings"

// CloudFront escapes '%', '\' and space in free-text fields a second time, so
// "%22" in the request arrives as "%2522". The replacements are ordered: each
// one may produce text that a later one must see.
var vendorUnescapes = [...]struct{ old, new string }{
	{"%2522", "%25"},
	{"%255C", "%5C"},
	{"%2520", "%20"},
}

// Unescape decodes a CloudFront free-text field such as cs(User-Agent).
func Unescape(s string) string {
	for _, r := range vendorUnescapes {
		s = strings.ReplaceAll(s, r.old, r.new)
	}
	return PercentDecode(s)
}

// PercentDecode decodes %XX sequences. Malformed sequences are kept verbatim and
// '+' is left alone. Invalid UTF-8 in the result is replaced with U+FFFD.
func PercentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
