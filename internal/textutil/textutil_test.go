package textutil

import (
	"slices"
	"testing"
)

func TestSortNatural(t *testing.T) {
	values := []string{"img10.jpg", "IMG2.jpg", "img1.jpg", "b", "A", "img02.jpg"}
	SortNatural(values)

	want := []string{"A", "b", "img1.jpg", "IMG2.jpg", "img02.jpg", "img10.jpg"}
	if !slices.Equal(values, want) {
		t.Fatalf("unexpected order:\n got %v\nwant %v", values, want)
	}
}

func TestNaturalCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"album2", "album10", -1},
		{"Album", "album", -1},
		{"album", "album", 0},
		{"x", "x1", -1},
		{"99999999999999999999999", "100000000000000000000000", -1},
		{"Zeta", "alpha", 1},
	}
	for _, tt := range tests {
		if got := NaturalCompare(tt.a, tt.b); got != tt.want {
			t.Errorf("NaturalCompare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"My Album!!", "My Album__"},
		{"  spaced  ", "spaced"},
		{"ok-name_1.2", "ok-name_1.2"},
		{"café", "caf_"},
		{"", ""},
		{"***", "___"},
	}
	for _, tt := range tests {
		if got := SanitizeSegment(tt.in); got != tt.want {
			t.Errorf("SanitizeSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeClientPath(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	got := NormalizeClientPath("dir\\cafe\u0301.jpg")
	if got != "dir/caf\u00e9.jpg" {
		t.Fatalf("unexpected normalized path %q", got)
	}
	if SanitizeSegment(got) != "dir_caf_.jpg" {
		t.Fatalf("composed rune should sanitize to one underscore, got %q", SanitizeSegment(got))
	}
}

func TestIsDotSegment(t *testing.T) {
	for _, v := range []string{"", ".", ".."} {
		if !IsDotSegment(v) {
			t.Errorf("expected %q to be a dot segment", v)
		}
	}
	if IsDotSegment("...") {
		t.Error("three dots is a valid name")
	}
}
