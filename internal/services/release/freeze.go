package release

import (
	"crewpay/internal/models"
)

// NormalizeDisputeStatus folds the raw sub-states into the four states the
// dispute machine reasons about.
func NormalizeDisputeStatus(raw string) string {
	switch raw {
	case models.DisputeStatusSubmitted:
		return models.DisputeStatusOpen
	case models.DisputeStatusNeedsMoreInfo:
		return models.DisputeStatusUnderReview
	default:
		return raw
	}
}

// IsDisputeResolved reports whether a dispute has reached DECIDED or CLOSED.
func IsDisputeResolved(d models.DisputeCase) bool {
	switch NormalizeDisputeStatus(d.Status) {
	case models.DisputeStatusDecided, models.DisputeStatusClosed:
		return true
	}
	return false
}

// IsReleaseBlocked is the freeze predicate every money-moving operation
// consults: a DISPUTED job stays frozen until one of its disputes resolves.
// A missing job is never blocked.
func IsReleaseBlocked(job *models.Job, disputes []models.DisputeCase) bool {
	if job == nil || job.Status != models.JobStatusDisputed {
		return false
	}
	for _, d := range disputes {
		if IsDisputeResolved(d) {
			return false
		}
	}
	return true
}
