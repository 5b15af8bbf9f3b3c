package workflow

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/models"
)

func targetReceipt(orderId int, number string, qty int64) models.ProcessingReceipt {
	return models.ProcessingReceipt{
		BusinessId:        "biz",
		NewFabricNumber:   number,
		ProcessingOrderId: orderId,
		ProcessingCenter:  "Center A",
		OrderNumber:       "PRO-000001",
		DesignCode:        "D100",
		Qty:               decimal.NewFromInt(qty),
	}
}

func currentReceipt(id, orderId int, number string, qty int64) *models.ProcessingReceipt {
	r := targetReceipt(orderId, number, qty)
	r.ID = id
	return &r
}

func TestDiffReceipts_EmptyToFull(t *testing.T) {
	target := []models.ProcessingReceipt{
		targetReceipt(1, "WR-01", 10),
		targetReceipt(1, "WR-02", 12),
	}
	inserts, deleteIds := DiffReceipts(target, nil)
	if len(inserts) != 2 || len(deleteIds) != 0 {
		t.Fatalf("expected 2 inserts and no deletes, got %d/%d", len(inserts), len(deleteIds))
	}
}

func TestDiffReceipts_InSyncIsNoop(t *testing.T) {
	target := []models.ProcessingReceipt{
		targetReceipt(1, "WR-01", 10),
	}
	current := []*models.ProcessingReceipt{
		currentReceipt(7, 1, "WR-01", 10),
	}
	inserts, deleteIds := DiffReceipts(target, current)
	if len(inserts) != 0 || len(deleteIds) != 0 {
		t.Fatalf("in-sync state must be a no-op, got inserts=%v deletes=%v", inserts, deleteIds)
	}
}

func TestDiffReceipts_ContentChangeIsDeletePlusInsert(t *testing.T) {
	target := []models.ProcessingReceipt{
		targetReceipt(1, "WR-01", 15), // qty changed from 10
	}
	current := []*models.ProcessingReceipt{
		currentReceipt(7, 1, "WR-01", 10),
	}
	inserts, deleteIds := DiffReceipts(target, current)
	if len(inserts) != 1 || len(deleteIds) != 1 {
		t.Fatalf("expected 1 insert + 1 delete, got %d/%d", len(inserts), len(deleteIds))
	}
	if deleteIds[0] != 7 {
		t.Fatalf("expected stale row 7 deleted, got %v", deleteIds)
	}
	if !inserts[0].Qty.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected replacement qty 15, got %s", inserts[0].Qty)
	}
}

func TestDiffReceipts_StraysAndDuplicatesRemoved(t *testing.T) {
	target := []models.ProcessingReceipt{
		targetReceipt(1, "WR-01", 10),
	}
	current := []*models.ProcessingReceipt{
		currentReceipt(3, 1, "WR-01", 10),
		currentReceipt(4, 1, "WR-01", 10), // duplicate key
		currentReceipt(5, 1, "WR-09", 10), // no longer in any order
		currentReceipt(6, 2, "WR-01", 10), // different order, not in target
	}
	inserts, deleteIds := DiffReceipts(target, current)
	if len(inserts) != 0 {
		t.Fatalf("expected no inserts, got %v", inserts)
	}
	sort.Ints(deleteIds)
	expected := []int{4, 5, 6}
	if len(deleteIds) != len(expected) {
		t.Fatalf("expected deletes %v, got %v", expected, deleteIds)
	}
	for i := range expected {
		if deleteIds[i] != expected[i] {
			t.Fatalf("expected deletes %v, got %v", expected, deleteIds)
		}
	}
}

func TestDiffReceipts_OrderClearedRemovesExactlyItsRows(t *testing.T) {
	// Two orders, three cuts total, empty projection.
	target := []models.ProcessingReceipt{
		targetReceipt(1, "WR-03", 10),
		targetReceipt(1, "WR-04", 10),
		targetReceipt(2, "XX-01", 10),
	}
	inserts, deleteIds := DiffReceipts(target, nil)
	if len(inserts) != 3 || len(deleteIds) != 0 {
		t.Fatalf("expected 3 inserts, got %d/%d", len(inserts), len(deleteIds))
	}

	// Order 1's received cuts are removed; its two rows and only its two
	// rows must be deleted.
	current := []*models.ProcessingReceipt{
		currentReceipt(1, 1, "WR-03", 10),
		currentReceipt(2, 1, "WR-04", 10),
		currentReceipt(3, 2, "XX-01", 10),
	}
	target = []models.ProcessingReceipt{
		targetReceipt(2, "XX-01", 10),
	}
	inserts, deleteIds = DiffReceipts(target, current)
	if len(inserts) != 0 {
		t.Fatalf("expected no inserts, got %v", inserts)
	}
	sort.Ints(deleteIds)
	if len(deleteIds) != 2 || deleteIds[0] != 1 || deleteIds[1] != 2 {
		t.Fatalf("expected exactly rows 1 and 2 deleted, got %v", deleteIds)
	}
}

func TestDiffReceipts_LegacyColumnRowsMatchByIdentity(t *testing.T) {
	target := []models.ProcessingReceipt{
		targetReceipt(1, "WR-01", 10),
	}
	// Row written by an old build: identifier in fabric_number, new column empty.
	legacy := currentReceipt(9, 1, "", 10)
	legacy.FabricNumber = "WR-01"

	inserts, deleteIds := DiffReceipts(target, []*models.ProcessingReceipt{legacy})
	if len(inserts) != 0 || len(deleteIds) != 0 {
		t.Fatalf("legacy-column row with equal content must be kept, got inserts=%v deletes=%v", inserts, deleteIds)
	}
}

func TestSameReceipt_ReceivedDateComparison(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	a := targetReceipt(1, "WR-01", 10)
	a.ReceivedDate = &day

	b := currentReceipt(1, 1, "WR-01", 10)
	if sameReceipt(a, b) {
		t.Fatalf("nil vs set received date must differ")
	}
	other := day
	b.ReceivedDate = &other
	if !sameReceipt(a, b) {
		t.Fatalf("equal received dates must match")
	}
}
