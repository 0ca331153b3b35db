package dispute

import (
	"testing"

	apperrors "crewpay/internal/errors"
	"crewpay/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	adminActor    = models.Actor{UserID: 1, Role: models.RoleAdmin}
	reviewerActor = models.Actor{UserID: 2, Role: models.RoleReviewer}
)

func TestValidateStatusTransition_AdminGrid(t *testing.T) {
	allowed := map[string][]string{
		models.DisputeStatusOpen:        {"OPEN", "UNDER_REVIEW", "DECIDED", "CLOSED"},
		models.DisputeStatusUnderReview: {"UNDER_REVIEW", "DECIDED", "CLOSED"},
		models.DisputeStatusDecided:     {"DECIDED", "CLOSED"},
		models.DisputeStatusClosed:      {"CLOSED"},
	}
	targets := []string{"OPEN", "UNDER_REVIEW", "DECIDED", "CLOSED"}

	for from, ok := range allowed {
		for _, to := range targets {
			err := ValidateStatusTransition(adminActor, from, to)
			if contains(ok, to) {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "%s -> %s", from, to)
			}
		}
	}
}

func TestValidateStatusTransition_RawStatesNormalize(t *testing.T) {
	assert.NoError(t, ValidateStatusTransition(reviewerActor, models.DisputeStatusSubmitted, models.DisputeStatusUnderReview))
	assert.NoError(t, ValidateStatusTransition(reviewerActor, models.DisputeStatusNeedsMoreInfo, models.DisputeStatusUnderReview))
	assert.NoError(t, ValidateStatusTransition(reviewerActor, models.DisputeStatusUnderReview, models.DisputeStatusNeedsMoreInfo))

	err := ValidateStatusTransition(reviewerActor, models.DisputeStatusNeedsMoreInfo, models.DisputeStatusOpen)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestValidateStatusTransition_Authorization(t *testing.T) {
	for _, target := range []string{models.DisputeStatusDecided, models.DisputeStatusClosed} {
		err := ValidateStatusTransition(reviewerActor, models.DisputeStatusUnderReview, target)
		assert.ErrorIs(t, err, apperrors.ErrAdminRequired)
	}

	poster := models.Actor{UserID: 3, Role: models.RolePoster}
	err := ValidateStatusTransition(poster, models.DisputeStatusOpen, models.DisputeStatusUnderReview)
	assert.ErrorIs(t, err, apperrors.ErrReviewerRequired)
}

func TestValidateStatusTransition_ConflictIsDistinctFromForbidden(t *testing.T) {
	err := ValidateStatusTransition(reviewerActor, models.DisputeStatusClosed, models.DisputeStatusOpen)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	de, ok := apperrors.As(err)
	if assert.True(t, ok) {
		assert.Equal(t, "DISPUTE_INVALID_TRANSITION", de.Code)
		assert.Equal(t, models.DisputeStatusClosed, de.From)
		assert.Equal(t, models.DisputeStatusOpen, de.To)
	}
}

func TestValidateStatusTransition_UnknownTarget(t *testing.T) {
	err := ValidateStatusTransition(adminActor, models.DisputeStatusOpen, models.DisputeStatusSubmitted)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
