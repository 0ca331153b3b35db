package pmrequest

import (
	"testing"

	apperrors "crewpay/internal/errors"
	"crewpay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition_Table(t *testing.T) {
	allowed := map[[2]models.PMStatus]bool{
		{models.PMStatusDraft, models.PMStatusSubmitted}:              true,
		{models.PMStatusSubmitted, models.PMStatusApproved}:           true,
		{models.PMStatusSubmitted, models.PMStatusAmendmentRequested}: true,
		{models.PMStatusSubmitted, models.PMStatusRejected}:           true,
		{models.PMStatusAmendmentRequested, models.PMStatusDraft}:     true,
		{models.PMStatusAmendmentRequested, models.PMStatusSubmitted}: true,
		{models.PMStatusApproved, models.PMStatusPaymentPending}:      true,
		{models.PMStatusPaymentPending, models.PMStatusFunded}:        true,
		{models.PMStatusFunded, models.PMStatusReceiptsSubmitted}:     true,
		{models.PMStatusReceiptsSubmitted, models.PMStatusVerified}:   true,
		{models.PMStatusVerified, models.PMStatusReleased}:            true,
		{models.PMStatusReleased, models.PMStatusClosed}:              true,
		{models.PMStatusClosed, models.PMStatusClosed}:                true,
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				err := ValidateTransition(from, to)
				if allowed[[2]models.PMStatus{from, to}] {
					assert.NoError(t, err)
					return
				}
				require.Error(t, err)
				de, ok := apperrors.As(err)
				require.True(t, ok)
				assert.Equal(t, apperrors.KindInvalidTransition, de.Kind)
				assert.Equal(t, string(from), de.From)
				assert.Equal(t, string(to), de.To)
			})
		}
	}
}

func TestValidateTransition_NamedRejections(t *testing.T) {
	cases := [][2]models.PMStatus{
		{models.PMStatusDraft, models.PMStatusApproved},
		{models.PMStatusClosed, models.PMStatusDraft},
		{models.PMStatusRejected, models.PMStatusSubmitted},
		{models.PMStatusRejected, models.PMStatusRejected},
		{models.PMStatusVerified, models.PMStatusClosed},
	}
	for _, c := range cases {
		err := ValidateTransition(c[0], c[1])
		assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition), "%s->%s", c[0], c[1])
		assert.Contains(t, err.Error(), string(c[0]))
		assert.Contains(t, err.Error(), string(c[1]))
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(models.PMStatusRejected))
	assert.True(t, IsTerminal(models.PMStatusClosed))
	assert.False(t, IsTerminal(models.PMStatusReleased))
}
