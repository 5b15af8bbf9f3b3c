package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
	"github.com/weavetrack/fabric_backend/workflow"
)

// Sweeps every processing order of a business for received cuts whose
// numbers collide with the main yard or with each other, renumbers them,
// and re-syncs the receipt projection. Prints each renumbering so the
// operator can notify the processing center.
func main() {
	businessID := flag.String("business-id", "", "Required: business id (uuid)")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	// No Redis here: the sweep serializes on the MySQL advisory lock.

	ctx := utils.SetBusinessIdInContext(context.Background(), strings.TrimSpace(*businessID))
	result, err := workflow.RepairDuplicateReceivedCuts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "repair failed: %v\n", err)
		os.Exit(1)
	}

	for _, renumber := range result.Renumbered {
		fmt.Printf("renumbered %s -> %s\n", renumber.Old, renumber.New)
	}
	fmt.Printf("receipts: added=%d removed=%d total=%d legacy_flattened=%d\n",
		result.Sync.Added, result.Sync.Removed, result.Sync.TotalCurrent, result.Sync.LegacyFlattened)
}
