package tokenauth

import (
	"encoding/base64"
	"strings"
)

// Btoa encodes UTF-8 text as standard, padded base64.
func Btoa(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// Atob decodes base64 text back to a string.
//
// Decoding is lenient and never fails: characters outside the alphabet are
// skipped, the URL-safe alphabet is accepted, input stops at the first '='
// and a trailing lone symbol is dropped. Bytes that are not valid UTF-8 are
// replaced with U+FFFD.
func Atob(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '=':
			i = len(text)
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '+', c == '/':
			b.WriteByte(c)
		case c == '-':
			b.WriteByte('+')
		case c == '_':
			b.WriteByte('/')
		}
	}
	clean := b.String()
	if len(clean)%4 == 1 {
		clean = clean[:len(clean)-1]
	}
	// clean holds only alphabet symbols and never has length 1 mod 4, so the
	// non-strict decoder cannot fail here.
	decoded, _ := base64.RawStdEncoding.DecodeString(clean)
	return strings.ToValidUTF8(string(decoded), "\uFFFD")
}
