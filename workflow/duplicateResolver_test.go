package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
)

func receivedCuts(numbers ...string) []models.ProcessingOrderReceivedCut {
	cuts := make([]models.ProcessingOrderReceivedCut, len(numbers))
	for i, n := range numbers {
		cuts[i] = models.ProcessingOrderReceivedCut{NewFabricNumber: n, Qty: decimal.NewFromInt(10)}
	}
	return cuts
}

func TestResolveDuplicateCuts_RenumbersSecondClaim(t *testing.T) {
	cuts := receivedCuts("WR-01", "WR-01", "WR-03")
	taken := map[string]struct{}{}

	renumbers, err := ResolveDuplicateCuts(cuts, taken, "")
	if err != nil {
		t.Fatalf("ResolveDuplicateCuts: %v", err)
	}
	if len(renumbers) != 1 {
		t.Fatalf("expected 1 renumber, got %d: %v", len(renumbers), renumbers)
	}
	if renumbers[0].Old != "WR-01" || renumbers[0].New != "WR-02" {
		t.Fatalf("expected WR-01 -> WR-02, got %s -> %s", renumbers[0].Old, renumbers[0].New)
	}
	if cuts[1].NewFabricNumber != "WR-02" {
		t.Fatalf("duplicate row not rewritten, got %s", cuts[1].NewFabricNumber)
	}
	// first occurrence keeps its number
	if cuts[0].NewFabricNumber != "WR-01" {
		t.Fatalf("first claim must win, got %s", cuts[0].NewFabricNumber)
	}
}

func TestResolveDuplicateCuts_YieldsToExistingClaims(t *testing.T) {
	// WR-01 and WR-02 already belong to the main yard or peer orders.
	taken := map[string]struct{}{
		"WR-01": {},
		"WR-02": {},
	}
	cuts := receivedCuts("WR-01")

	renumbers, err := ResolveDuplicateCuts(cuts, taken, "")
	if err != nil {
		t.Fatalf("ResolveDuplicateCuts: %v", err)
	}
	if len(renumbers) != 1 || renumbers[0].New != "WR-03" {
		t.Fatalf("expected WR-01 -> WR-03, got %v", renumbers)
	}
	if _, claimed := taken["WR-03"]; !claimed {
		t.Fatalf("replacement must be claimed in the taken set")
	}
}

func TestResolveDuplicateCuts_FallbackPrefixForUnparseableNumbers(t *testing.T) {
	taken := map[string]struct{}{"oddname": {}}
	cuts := receivedCuts("oddname")

	renumbers, err := ResolveDuplicateCuts(cuts, taken, "WR")
	if err != nil {
		t.Fatalf("ResolveDuplicateCuts: %v", err)
	}
	if len(renumbers) != 1 || renumbers[0].New != "WR-01" {
		t.Fatalf("expected fallback prefix renumber to WR-01, got %v", renumbers)
	}
}

func TestResolveDuplicateCuts_NoPrefixAvailableIsConflict(t *testing.T) {
	taken := map[string]struct{}{"oddname": {}}
	cuts := receivedCuts("oddname")

	_, err := ResolveDuplicateCuts(cuts, taken, "")
	if err == nil {
		t.Fatalf("expected conflict error")
	}
	if !utils.IsConflictError(err) {
		t.Fatalf("expected ConflictError, got %T: %v", err, err)
	}
}

func TestResolveDuplicateCuts_CleanInputIsNoop(t *testing.T) {
	cuts := receivedCuts("WR-01", "WR-02", "XX-05")
	taken := map[string]struct{}{}

	renumbers, err := ResolveDuplicateCuts(cuts, taken, "WR")
	if err != nil {
		t.Fatalf("ResolveDuplicateCuts: %v", err)
	}
	if len(renumbers) != 0 {
		t.Fatalf("clean input must not renumber, got %v", renumbers)
	}
	if len(taken) != 3 {
		t.Fatalf("all numbers should be claimed, got %d", len(taken))
	}
}

func TestOrderNumberingPrefix(t *testing.T) {
	if got := orderNumberingPrefix(receivedCuts("oddname", "WR-04")); got != "WR" {
		t.Fatalf("expected WR, got %q", got)
	}
	if got := orderNumberingPrefix(receivedCuts("oddname")); got != "" {
		t.Fatalf("expected empty prefix, got %q", got)
	}
}
