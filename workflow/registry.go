package workflow

import (
	"context"
	"errors"

	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
)

type Namespace string

const (
	NamespaceMainYard   Namespace = "MainYard"
	NamespaceProcessing Namespace = "Processing"
)

// EligibilityReason is the operator-facing reason a cut cannot move.
// An empty reason means eligible.
type EligibilityReason string

const (
	ReasonEligible              EligibilityReason = ""
	ReasonNotFound              EligibilityReason = "fabric cut not found"
	ReasonNotInspected          EligibilityReason = "four-point inspection not completed"
	ReasonCommittedToProcessing EligibilityReason = "committed to processing"
	ReasonAlreadyInProcessing   EligibilityReason = "already sent to processing"
)

type FabricCutLookup struct {
	Exists       bool                      `json:"exists"`
	Eligible     bool                      `json:"eligible"`
	Reason       EligibilityReason         `json:"reason,omitempty"`
	Namespace    Namespace                 `json:"namespace,omitempty"`
	FabricNumber string                    `json:"fabric_number,omitempty"`
	Location     string                    `json:"location,omitempty"`
	Cut          *models.FabricCut         `json:"cut,omitempty"`
	Receipt      *models.ProcessingReceipt `json:"receipt,omitempty"`
}

// EvaluateEligibility is the pure movement-eligibility decision, evaluated
// in order: the cut must exist in exactly one namespace; a main-yard cut
// needs completed four-point inspection; a cut referenced by a processing
// order's sent list is committed and tracked through its receipt instead.
// A cut found in both namespaces violates the global uniqueness invariant
// and is returned as an error, never guessed around.
func EvaluateEligibility(inMainYard, inProcessing, fourPointChecked, committed bool) (bool, EligibilityReason, error) {
	if inMainYard && inProcessing {
		return false, "", utils.NewInvariantViolation("fabric number exists in both the main-yard and processing namespaces")
	}
	if !inMainYard && !inProcessing {
		return false, ReasonNotFound, nil
	}
	if inProcessing {
		return false, ReasonAlreadyInProcessing, nil
	}
	if !fourPointChecked {
		return false, ReasonNotInspected, nil
	}
	if committed {
		return false, ReasonCommittedToProcessing, nil
	}
	return true, ReasonEligible, nil
}

// LookupFabricCut resolves an operator-entered fabric reference: each
// canonical candidate is probed against the main-yard collection first,
// then the receipt projection; the first hit wins. "Not found" and
// "ineligible" are results, not errors; only storage failures and
// invariant violations are returned as errors.
func LookupFabricCut(ctx context.Context, raw string) (*FabricCutLookup, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	logger := config.GetLogger()

	for _, candidate := range models.CanonicalCandidates(raw) {
		cut, err := models.GetFabricCutByNumber(ctx, db, businessId, candidate)
		if err != nil && !utils.IsNotFound(err) {
			return nil, err
		}
		receipt, err := models.GetProcessingReceiptByNumber(ctx, db, businessId, candidate)
		if err != nil && !utils.IsNotFound(err) {
			return nil, err
		}

		if cut == nil && receipt == nil {
			continue
		}

		inMainYard := cut != nil
		inProcessing := receipt != nil

		committed := false
		fourPoint := false
		if inMainYard {
			fourPoint = cut.IsFourPointChecked
			committed, err = models.IsCutCommitted(ctx, db, businessId, cut.FabricNumber)
			if err != nil {
				return nil, err
			}
		}

		eligible, reason, err := EvaluateEligibility(inMainYard, inProcessing, fourPoint, committed)
		if err != nil {
			config.LogError(logger, "registry.go", "LookupFabricCut", "EvaluateEligibility", candidate, err)
			return nil, err
		}

		lookup := &FabricCutLookup{
			Exists:       true,
			Eligible:     eligible,
			Reason:       reason,
			FabricNumber: candidate,
		}
		if inMainYard {
			lookup.Namespace = NamespaceMainYard
			lookup.Location = cut.Location
			lookup.Cut = cut
		} else {
			lookup.Namespace = NamespaceProcessing
			lookup.Location = models.LocationProcessing
			if receipt.ProcessingCenter != "" {
				lookup.Location = receipt.ProcessingCenter
			}
			lookup.Receipt = receipt
		}
		return lookup, nil
	}

	return &FabricCutLookup{
		Exists:   false,
		Eligible: false,
		Reason:   ReasonNotFound,
	}, nil
}
