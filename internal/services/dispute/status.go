package dispute

import (
	"fmt"

	apperrors "crewpay/internal/errors"
	"crewpay/internal/models"
	"crewpay/internal/services/release"
)

var statusTransitions = map[string][]string{
	models.DisputeStatusOpen:        {models.DisputeStatusOpen, models.DisputeStatusUnderReview, models.DisputeStatusDecided, models.DisputeStatusClosed},
	models.DisputeStatusUnderReview: {models.DisputeStatusUnderReview, models.DisputeStatusDecided, models.DisputeStatusClosed},
	models.DisputeStatusDecided:     {models.DisputeStatusDecided, models.DisputeStatusClosed},
	models.DisputeStatusClosed:      {models.DisputeStatusClosed},
}

// Targets a caller may request. SUBMITTED is only ever set on creation.
var settableStatuses = map[string]bool{
	models.DisputeStatusOpen:          true,
	models.DisputeStatusUnderReview:   true,
	models.DisputeStatusNeedsMoreInfo: true,
	models.DisputeStatusDecided:       true,
	models.DisputeStatusClosed:        true,
}

// CanTransitionStatus checks an edge on normalized states.
func CanTransitionStatus(from, to string) bool {
	from, to = release.NormalizeDisputeStatus(from), release.NormalizeDisputeStatus(to)
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateStatusTransition authorizes actor and then checks the edge.
// Authorization failures are Forbidden; a bad edge is a Conflict.
func ValidateStatusTransition(actor models.Actor, rawFrom, target string) error {
	if !settableStatuses[target] {
		return apperrors.Validation("INVALID_DISPUTE_STATUS", fmt.Sprintf("unknown dispute status %q", target))
	}

	switch release.NormalizeDisputeStatus(target) {
	case models.DisputeStatusDecided, models.DisputeStatusClosed:
		if !actor.IsTopLevelAdmin() {
			return apperrors.ErrAdminRequired
		}
	default:
		if !actor.IsReviewer() {
			return apperrors.ErrReviewerRequired
		}
	}

	if !CanTransitionStatus(rawFrom, target) {
		return &apperrors.DomainError{
			Kind:    apperrors.KindConflict,
			Code:    "DISPUTE_INVALID_TRANSITION",
			Message: "dispute cannot move to the requested status",
			From:    rawFrom,
			To:      target,
		}
	}
	return nil
}
