package common

import "unicode/utf8"

// TruncateRunes returns at most n bytes of s, stepping back so the cut never
// lands inside a multi-byte UTF-8 sequence.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
