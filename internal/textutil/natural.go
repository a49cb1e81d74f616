package textutil

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NaturalCompare returns -1, 0, or +1 comparing a and b in natural,
// case-insensitive order: runs of digits compare by numeric value ("img2"
// before "img10") and other runes compare after case folding. Ties fall back to
// a byte comparison so the ordering is total.
func NaturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ra, wa := utf8.DecodeRuneInString(a[i:])
		rb, wb := utf8.DecodeRuneInString(b[j:])

		if isDigit(ra) && isDigit(rb) {
			endA := digitRunEnd(a, i)
			endB := digitRunEnd(b, j)
			if c := compareDigitRuns(a[i:endA], b[j:endB]); c != 0 {
				return c
			}
			i, j = endA, endB
			continue
		}

		la, lb := unicode.ToLower(ra), unicode.ToLower(rb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		i += wa
		j += wb
	}

	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	}
	return strings.Compare(a, b)
}

// SortNatural sorts values in place using NaturalCompare.
func SortNatural(values []string) {
	slices.SortStableFunc(values, NaturalCompare)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func digitRunEnd(s string, start int) int {
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return end
}

// compareDigitRuns compares two decimal strings by value without parsing, so
// arbitrarily long runs never overflow.
func compareDigitRuns(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	return strings.Compare(ta, tb)
}
