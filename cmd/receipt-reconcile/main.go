package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
	"github.com/weavetrack/fabric_backend/workflow"
)

// Rebuilds the processing_receipts projection for one business, or for
// every business when --all is given. Safe to re-run: a clean projection
// yields an all-zero result.
func main() {
	businessID := flag.String("business-id", "", "business id (uuid)")
	all := flag.Bool("all", false, "reconcile every business")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" && !*all {
		fmt.Fprintln(os.Stderr, "--business-id or --all is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	var businessIds []string
	if *all {
		if err := db.Model(&models.Business{}).Pluck("id", &businessIds).Error; err != nil {
			fmt.Fprintf(os.Stderr, "list businesses: %v\n", err)
			os.Exit(1)
		}
	} else {
		businessIds = []string{strings.TrimSpace(*businessID)}
	}

	failed := 0
	for _, id := range businessIds {
		ctx := utils.SetBusinessIdInContext(context.Background(), id)
		result, err := workflow.ReconcileProcessingReceipts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "business %s: %v\n", id, err)
			failed++
			continue
		}
		out, _ := json.Marshal(result)
		fmt.Printf("business %s: %s\n", id, out)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
