package workflow

import (
	"testing"

	"github.com/weavetrack/fabric_backend/utils"
)

func TestEvaluateEligibility(t *testing.T) {
	cases := []struct {
		name         string
		inMainYard   bool
		inProcessing bool
		fourPoint    bool
		committed    bool
		eligible     bool
		reason       EligibilityReason
	}{
		{"inspected free cut moves", true, false, true, false, true, ReasonEligible},
		{"uninspected cut blocked", true, false, false, false, false, ReasonNotInspected},
		{"committed cut blocked even when inspected", true, false, true, true, false, ReasonCommittedToProcessing},
		{"processing-side cut blocked", false, true, false, false, false, ReasonAlreadyInProcessing},
		{"unknown number", false, false, false, false, false, ReasonNotFound},
	}

	for _, tc := range cases {
		eligible, reason, err := EvaluateEligibility(tc.inMainYard, tc.inProcessing, tc.fourPoint, tc.committed)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if eligible != tc.eligible || reason != tc.reason {
			t.Fatalf("%s: got (%v, %q), expected (%v, %q)", tc.name, eligible, reason, tc.eligible, tc.reason)
		}
	}
}

func TestEvaluateEligibility_DualNamespaceIsInvariantViolation(t *testing.T) {
	_, _, err := EvaluateEligibility(true, true, true, false)
	if err == nil {
		t.Fatalf("expected invariant violation")
	}
	if !utils.IsInvariantViolation(err) {
		t.Fatalf("expected InvariantViolation, got %T: %v", err, err)
	}
}
