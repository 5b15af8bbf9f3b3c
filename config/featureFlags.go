package config

import (
	"os"
	"strings"
)

// StrictCutImmutability enables hard guardrails on fabric cuts:
// a cut that has been committed to a processing order cannot have its
// quantity or cut number edited; it must be released from the order first.
//
// Set via env:
// - STRICT_CUT_IMMUTABLE=true
func StrictCutImmutability() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_CUT_IMMUTABLE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// DebugFor turns on verbose workflow logging per document type.
//
// Set via env:
// - DEBUG_WORKFLOWS="RECEIPT_SYNC,FABRIC_MOVEMENT,PROCESSING_ORDER,DUPLICATE_REPAIR"
//
// Keys are case-insensitive.
func DebugFor(doc string) bool {
	doc = strings.ToUpper(strings.TrimSpace(doc))
	if doc == "" {
		return false
	}
	raw := os.Getenv("DEBUG_WORKFLOWS")
	if strings.TrimSpace(raw) == "" {
		return false
	}
	for _, part := range strings.Split(raw, ",") {
		if strings.ToUpper(strings.TrimSpace(part)) == doc {
			return true
		}
	}
	return false
}
