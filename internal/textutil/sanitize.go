package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeClientPath converts a client-supplied relative path into the form
// used for sanitizing: backslashes become forward slashes and the result is
// NFC-normalized so visually identical names map to the same bytes.
func NormalizeClientPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return norm.NFC.String(p)
}

// SanitizeSegment replaces every rune outside [A-Za-z0-9 _.-] with an
// underscore and trims surrounding whitespace. The result may be empty.
func SanitizeSegment(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if isSegmentRune(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return strings.TrimSpace(b.String())
}

// IsDotSegment reports whether the value is empty or one of the relative
// directory references "." and "..".
func IsDotSegment(value string) bool {
	return value == "" || value == "." || value == ".."
}

func isSegmentRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == ' ' || r == '_' || r == '.' || r == '-':
		return true
	}
	return false
}
