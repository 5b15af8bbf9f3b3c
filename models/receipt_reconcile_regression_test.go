package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
	"github.com/weavetrack/fabric_backend/workflow"
)

// End-to-end regression: a received cut entered with a number that already
// exists in the main yard must be renumbered during the patch, the receipt
// projection must follow, and a second reconcile must be a no-op.
func TestProcessingOrderPatchRenumbersAndReconcileIsIdempotent(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "fabric_test")
	// Helpful to see logs in CI when debugging failures.
	t.Setenv("DEBUG_WORKFLOWS", "RECEIPT_SYNC,DUPLICATE_REPAIR")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	biz, err := models.CreateBusiness(ctx, &models.NewBusiness{
		Name:     "Test Mill",
		Email:    "owner@test.local",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}
	ctx = utils.SetBusinessIdInContext(ctx, biz.ID.String())

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		OrderNumber: "ORD-1001",
		DesignCode:  "D100",
		DesignName:  "Check Twill",
		TargetQty:   decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	loom, err := models.CreateLoom(ctx, &models.NewLoom{LoomCode: "L1", Name: "Loom 1"})
	if err != nil {
		t.Fatalf("CreateLoom: %v", err)
	}

	warp, err := models.CreateWarp(ctx, &models.NewWarp{
		WarpCode:  "WR",
		OrderId:   order.ID,
		LoomId:    loom.ID,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		TargetQty: decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("CreateWarp: %v", err)
	}

	// Two cuts, auto-numbered WR-01 and WR-02, both four-point checked.
	var cuts []*models.FabricCut
	for i := 0; i < 2; i++ {
		cut, err := models.CreateFabricCut(ctx, &models.NewFabricCut{
			WarpId: warp.ID,
			Qty:    decimal.NewFromInt(25),
		})
		if err != nil {
			t.Fatalf("CreateFabricCut #%d: %v", i+1, err)
		}
		cuts = append(cuts, cut)
		if _, err := models.CreateInspection(ctx, &models.NewInspection{
			FabricCutId:    cut.ID,
			InspectionType: models.InspectionTypeFourPoint,
			InspectedQty:   decimal.NewFromInt(25),
			InspectedBy:    "qa",
		}); err != nil {
			t.Fatalf("CreateInspection: %v", err)
		}
	}
	if cuts[0].FabricNumber != "WR-01" || cuts[1].FabricNumber != "WR-02" {
		t.Fatalf("expected auto numbers WR-01/WR-02, got %s/%s", cuts[0].FabricNumber, cuts[1].FabricNumber)
	}

	// A variant spelling of an existing number is a duplicate, not a new cut.
	if _, err := models.CreateFabricCut(ctx, &models.NewFabricCut{
		WarpId:       warp.ID,
		Qty:          decimal.NewFromInt(25),
		FabricNumber: "wr/1",
	}); !utils.IsConflictError(err) {
		t.Fatalf("expected conflict creating wr/1 while WR-01 exists, got %v", err)
	}
	// An explicit free number is stored in canonical form.
	extra, err := models.CreateFabricCut(ctx, &models.NewFabricCut{
		WarpId:       warp.ID,
		Qty:          decimal.NewFromInt(25),
		FabricNumber: "wr/9",
	})
	if err != nil {
		t.Fatalf("CreateFabricCut wr/9: %v", err)
	}
	if extra.FabricNumber != "WR-09" {
		t.Fatalf("expected wr/9 to be stored as WR-09, got %s", extra.FabricNumber)
	}

	processingOrder, err := models.CreateProcessingOrder(ctx, &models.NewProcessingOrder{
		ProcessingCenter: "Center A",
		SentDate:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		SentCuts: []models.NewProcessingOrderSentCut{
			{FabricNumber: "WR-01"},
			{FabricNumber: "WR-02"},
		},
	})
	if err != nil {
		t.Fatalf("CreateProcessingOrder: %v", err)
	}

	// The center reports a received cut labelled "WR-01", which collides
	// with the main-yard cut of the same name.
	received := []models.NewReceivedFabricCut{
		{NewFabricNumber: "WR-01", Qty: decimal.NewFromInt(24)},
	}
	result, err := workflow.UpdateProcessingOrder(ctx, processingOrder.ID, &workflow.UpdateProcessingOrderInput{
		ReceivedCuts: &received,
	})
	if err != nil {
		t.Fatalf("UpdateProcessingOrder: %v", err)
	}
	if len(result.Renumbered) != 1 {
		t.Fatalf("expected 1 renumber, got %v", result.Renumbered)
	}
	if result.Renumbered[0].Old != "WR-01" || result.Renumbered[0].New != "WR-03" {
		t.Fatalf("expected WR-01 -> WR-03, got %s -> %s", result.Renumbered[0].Old, result.Renumbered[0].New)
	}
	if result.Sync.Added != 1 {
		t.Fatalf("expected 1 receipt added, got %+v", result.Sync)
	}

	// The projection must hold the renumbered identifier only.
	db := config.GetDB()
	assertReceiptSyncLockFree(t, biz.ID.String())
	receipt, err := models.GetProcessingReceiptByNumber(ctx, db, biz.ID.String(), "WR-03")
	if err != nil {
		t.Fatalf("receipt WR-03 not found after patch: %v", err)
	}
	if !receipt.Qty.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("expected receipt qty 24, got %s", receipt.Qty)
	}

	// WR-01 still resolves to the main-yard cut and is blocked as committed.
	lookup, err := workflow.LookupFabricCut(ctx, "wr/1")
	if err != nil {
		t.Fatalf("LookupFabricCut: %v", err)
	}
	if !lookup.Exists || lookup.Namespace != workflow.NamespaceMainYard {
		t.Fatalf("expected main-yard hit for wr/1, got %+v", lookup)
	}
	if lookup.Eligible || lookup.Reason != workflow.ReasonCommittedToProcessing {
		t.Fatalf("committed cut must be blocked, got %+v", lookup)
	}

	// WR-03 resolves to the processing namespace.
	lookup, err = workflow.LookupFabricCut(ctx, "WR-03")
	if err != nil {
		t.Fatalf("LookupFabricCut WR-03: %v", err)
	}
	if lookup.Namespace != workflow.NamespaceProcessing || lookup.Reason != workflow.ReasonAlreadyInProcessing {
		t.Fatalf("expected processing-side block for WR-03, got %+v", lookup)
	}

	// Reconciling again must change nothing.
	second, err := workflow.ReconcileProcessingReceipts(ctx)
	if err != nil {
		t.Fatalf("ReconcileProcessingReceipts: %v", err)
	}
	if second.Added != 0 || second.Removed != 0 || len(second.Renumbered) != 0 {
		t.Fatalf("second reconcile must be a no-op, got %+v", second)
	}
	if second.TotalCurrent != 1 {
		t.Fatalf("expected 1 receipt in projection, got %d", second.TotalCurrent)
	}
	assertReceiptSyncLockFree(t, biz.ID.String())

	// The advisory lock must be obtainable again from a fresh connection;
	// a leaked lock makes this block for the full GET_LOCK timeout.
	if _, err := workflow.RepairDuplicateReceivedCuts(ctx); err != nil {
		t.Fatalf("RepairDuplicateReceivedCuts after reconcile: %v", err)
	}
	assertReceiptSyncLockFree(t, biz.ID.String())
}

// assertReceiptSyncLockFree fails the test when the per-business advisory
// lock is still held by any MySQL session. IS_FREE_LOCK is server-wide, so
// it catches a lock stranded on a pooled connection no matter which
// connection runs the check.
func assertReceiptSyncLockFree(t *testing.T, businessId string) {
	t.Helper()
	db := config.GetDB()
	var free int
	if err := db.Raw("SELECT IS_FREE_LOCK(?)", "receiptsync:"+businessId).Scan(&free).Error; err != nil {
		t.Fatalf("IS_FREE_LOCK: %v", err)
	}
	if free != 1 {
		t.Fatalf("receipt sync lock for business %s is still held after the workflow returned", businessId)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("fabric-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("fabric-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=fabric_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
