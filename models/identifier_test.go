package models

import (
	"reflect"
	"testing"
)

func TestSplitFabricNumber(t *testing.T) {
	cases := []struct {
		in     string
		prefix string
		seq    int
		ok     bool
	}{
		{"WR-01", "WR", 1, true},
		{"WR/1", "WR", 1, true},
		{"A-B-12", "A-B", 12, true},
		{"WR-100", "WR", 100, true},
		{"WR-", "", 0, false},
		{"-01", "", 0, false},
		{"WR-XX", "", 0, false},
		{"plainname", "", 0, false},
	}
	for _, tc := range cases {
		prefix, seq, ok := SplitFabricNumber(tc.in)
		if ok != tc.ok || prefix != tc.prefix || seq != tc.seq {
			t.Fatalf("SplitFabricNumber(%q) = (%q, %d, %v), expected (%q, %d, %v)",
				tc.in, prefix, seq, ok, tc.prefix, tc.seq, tc.ok)
		}
	}
}

func TestFormatFabricNumber_PadsToTwoDigits(t *testing.T) {
	cases := []struct {
		prefix   string
		seq      int
		expected string
	}{
		{"WR", 1, "WR-01"},
		{"WR", 10, "WR-10"},
		{"WR", 100, "WR-100"},
	}
	for _, tc := range cases {
		if got := FormatFabricNumber(tc.prefix, tc.seq); got != tc.expected {
			t.Fatalf("FormatFabricNumber(%q, %d) = %q, expected %q", tc.prefix, tc.seq, got, tc.expected)
		}
	}
}

func TestCanonicalCandidates(t *testing.T) {
	cases := []struct {
		in       string
		expected []string
	}{
		// canonical already: single candidate
		{"WR-01", []string{"WR-01"}},
		// unpadded and slashed variants normalize first, raw kept last
		{"wr/1", []string{"WR-01", "WR/1", "wr/1"}},
		{"WR-1", []string{"WR-01", "WR-1"}},
		// slashes inside the prefix produce both interpretations
		{"A/B/1", []string{"A/B-01", "A-B-01", "A/B/1"}},
		// legacy free-form names survive as themselves
		{"  legacy name ", []string{"LEGACY NAME", "legacy name"}},
		{"", nil},
		{"   ", nil},
	}
	for _, tc := range cases {
		got := CanonicalCandidates(tc.in)
		if !reflect.DeepEqual(got, tc.expected) {
			t.Fatalf("CanonicalCandidates(%q) = %v, expected %v", tc.in, got, tc.expected)
		}
	}
}

func TestCanonicalFabricNumber(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"WR-01", "WR-01"},
		{"wr/1", "WR-01"},
		{" wr-1 ", "WR-01"},
		{"WR-100", "WR-100"},
		{"legacy name", "LEGACY NAME"},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := CanonicalFabricNumber(tc.in); got != tc.expected {
			t.Fatalf("CanonicalFabricNumber(%q) = %q, expected %q", tc.in, got, tc.expected)
		}
	}
}

func TestNextFabricNumber_SkipsTakenAndFillsGaps(t *testing.T) {
	taken := map[string]struct{}{
		"WR-01": {},
		"WR-03": {},
	}
	if got := NextFabricNumber("WR", taken); got != "WR-02" {
		t.Fatalf("expected WR-02 to fill the gap, got %s", got)
	}
	taken["WR-02"] = struct{}{}
	if got := NextFabricNumber("WR", taken); got != "WR-04" {
		t.Fatalf("expected WR-04 after the gap closed, got %s", got)
	}
	if got := NextFabricNumber("OTHER", taken); got != "OTHER-01" {
		t.Fatalf("fresh prefix should start at 01, got %s", got)
	}
}
