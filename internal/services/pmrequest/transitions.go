package pmrequest

import (
	apperrors "crewpay/internal/errors"
	"crewpay/internal/models"
)

var transitions = map[models.PMStatus][]models.PMStatus{
	models.PMStatusDraft:              {models.PMStatusSubmitted},
	models.PMStatusSubmitted:          {models.PMStatusApproved, models.PMStatusAmendmentRequested, models.PMStatusRejected},
	models.PMStatusAmendmentRequested: {models.PMStatusDraft, models.PMStatusSubmitted},
	models.PMStatusApproved:           {models.PMStatusPaymentPending},
	models.PMStatusPaymentPending:     {models.PMStatusFunded},
	models.PMStatusFunded:             {models.PMStatusReceiptsSubmitted},
	models.PMStatusReceiptsSubmitted:  {models.PMStatusVerified},
	models.PMStatusVerified:           {models.PMStatusReleased},
	models.PMStatusReleased:           {models.PMStatusClosed},
	models.PMStatusClosed:             {models.PMStatusClosed},
	models.PMStatusRejected:           {},
}

// AllStatuses lists every state in lifecycle order.
var AllStatuses = []models.PMStatus{
	models.PMStatusDraft,
	models.PMStatusSubmitted,
	models.PMStatusAmendmentRequested,
	models.PMStatusApproved,
	models.PMStatusRejected,
	models.PMStatusPaymentPending,
	models.PMStatusFunded,
	models.PMStatusReceiptsSubmitted,
	models.PMStatusVerified,
	models.PMStatusReleased,
	models.PMStatusClosed,
}

func CanTransition(from, to models.PMStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an InvalidTransition error naming both states
// when from->to is not an edge of the lifecycle.
func ValidateTransition(from, to models.PMStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return apperrors.InvalidTransition("PM_REQUEST_INVALID_TRANSITION", string(from), string(to))
}

// IsTerminal reports whether no forward edge leaves status.
func IsTerminal(status models.PMStatus) bool {
	return status == models.PMStatusRejected || status == models.PMStatusClosed
}
