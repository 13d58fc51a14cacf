package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// DecodePrefix turns the first n bytes of content into normalized text.
// Valid UTF-8 is used as is; anything else is read as ISO-8859-1, which maps
// every byte to a rune. The result is NFKC normalized (ligatures such as "ﬁ"
// become "fi"), carriage returns become newlines and other control
// characters are dropped.
func DecodePrefix(content []byte, n int) string {
	valid := content
	if n > 0 && len(content) > n {
		content = content[:n]
		valid = trimPartialRune(content)
	}

	var text string
	if utf8.Valid(valid) {
		text = string(valid)
	} else {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
		if err != nil {
			// ISO-8859-1 cannot fail; keep the lossy conversion just in case.
			decoded = []byte(strings.ToValidUTF8(string(content), ""))
		}
		text = string(decoded)
	}

	text = norm.NFKC.String(text)

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\r':
			sb.WriteByte('\n')
		case r == '\n' || r == '\t':
			sb.WriteRune(r)
		case unicode.IsControl(r):
			// dropped
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// trimPartialRune drops an incomplete multi-byte sequence left at the end by
// the prefix cut.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size > 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

// Clip shortens s to at most n bytes, backing off to a rune boundary.
func Clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
