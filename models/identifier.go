package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Fabric numbers are canonically `<warpCode>-<NN>` with a two-digit padded
// sequence. Operators also enter slash-separated and unpadded variants
// ("WR/1", "wr-1"); those are resolved to candidate canonical forms here
// and probed against storage by the caller.

// SplitFabricNumber splits a canonical fabric number into its prefix and
// sequence. ok is false when the trailing segment is not numeric.
func SplitFabricNumber(fabricNumber string) (prefix string, seq int, ok bool) {
	idx := strings.LastIndexAny(fabricNumber, "-/")
	if idx <= 0 || idx == len(fabricNumber)-1 {
		return "", 0, false
	}
	seq, err := strconv.Atoi(fabricNumber[idx+1:])
	if err != nil || seq < 0 {
		return "", 0, false
	}
	return fabricNumber[:idx], seq, true
}

// FormatFabricNumber renders the canonical `<prefix>-<NN>` form. Sequences
// of 100 and above keep their natural width.
func FormatFabricNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%02d", prefix, seq)
}

// CanonicalCandidates never fails on malformed input. It returns the
// plausible canonical forms of an operator-entered fabric reference,
// ordered by likelihood, so the caller can probe each against storage.
// The first candidate is the canonical interpretation (separator
// normalized, sequence zero-padded); the trimmed raw input is kept as the
// last candidate for records that predate canonical numbering.
func CanonicalCandidates(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	upper := strings.ToUpper(trimmed)

	var candidates []string
	seen := make(map[string]struct{})
	add := func(c string) {
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		candidates = append(candidates, c)
	}

	if prefix, seq, ok := SplitFabricNumber(upper); ok {
		add(FormatFabricNumber(prefix, seq))
		// a prefix itself containing separators may have been entered with
		// slashes throughout ("A/B/1" for warp code "A-B")
		if strings.ContainsAny(prefix, "/") {
			add(FormatFabricNumber(strings.ReplaceAll(prefix, "/", "-"), seq))
		}
	}
	add(upper)
	add(trimmed)

	return candidates
}

// CanonicalFabricNumber normalizes an operator-entered fabric reference to
// the form it is stored under: the separator before the sequence becomes a
// dash, the whole reference is upper-cased and the sequence zero-padded.
// Input that does not parse as `<prefix><sep><seq>` is returned trimmed and
// upper-cased so free-form legacy names pass through unchanged.
func CanonicalFabricNumber(raw string) string {
	candidates := CanonicalCandidates(raw)
	if len(candidates) == 0 {
		return strings.TrimSpace(raw)
	}
	return candidates[0]
}

// NextFabricNumber deterministically picks the lowest-numbered free
// two-digit-padded suffix under prefix. Pure function, no I/O; shared by
// receipt-time assignment and duplicate repair.
func NextFabricNumber(prefix string, taken map[string]struct{}) string {
	for seq := 1; ; seq++ {
		candidate := FormatFabricNumber(prefix, seq)
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}
