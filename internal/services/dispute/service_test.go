package dispute

import (
	"context"
	"testing"

	apperrors "crewpay/internal/errors"
	"crewpay/internal/models"
	"crewpay/internal/repositories/memory"
	"crewpay/internal/services/release"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	posterActor     = models.Actor{UserID: 10, Role: models.RolePoster}
	contractorActor = models.Actor{UserID: 20, Role: models.RoleContractor}
	systemActor     = models.Actor{Role: models.RoleSystem}
)

func setup(t *testing.T) (*Service, *memory.Store, *models.Job) {
	t.Helper()
	store := memory.NewStore()
	job := &models.Job{
		PosterID:      posterActor.UserID,
		ContractorID:  contractorActor.UserID,
		Status:        models.JobStatusInProgress,
		PayoutStatus:  models.PayoutStatusPending,
		PaymentStatus: models.PaymentStatusEscrowed,
		EscrowStatus:  models.EscrowStatusHeld,
		AmountCents:   20000,
		Currency:      "USD",
	}
	require.NoError(t, store.Jobs().Create(context.Background(), job))
	return NewService(store, nil), store, job
}

func escalate(t *testing.T, svc *Service, job *models.Job) *models.DisputeCase {
	t.Helper()
	d, err := svc.Escalate(context.Background(), posterActor, EscalateInput{
		JobID: job.ID, TicketID: 55, Reason: "tiles never installed",
	})
	require.NoError(t, err)
	return d
}

func TestEscalate(t *testing.T) {
	ctx := context.Background()

	t.Run("opens dispute and freezes job", func(t *testing.T) {
		svc, store, job := setup(t)
		d := escalate(t, svc, job)

		assert.Equal(t, models.DisputeStatusSubmitted, d.Status)
		assert.Equal(t, contractorActor.UserID, d.RespondentID)
		require.NotNil(t, d.Deadline)

		stored, err := store.Jobs().GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusDisputed, stored.Status)

		disputes, err := store.Disputes().ListByJob(ctx, job.ID)
		require.NoError(t, err)
		assert.True(t, release.IsReleaseBlocked(stored, disputes))
	})

	t.Run("one unresolved dispute per job", func(t *testing.T) {
		svc, _, job := setup(t)
		escalate(t, svc, job)

		_, err := svc.Escalate(ctx, contractorActor, EscalateInput{JobID: job.ID, Reason: "counter claim"})
		assert.ErrorIs(t, err, apperrors.ErrDisputeAlreadyOpen)
	})

	t.Run("outsiders cannot escalate", func(t *testing.T) {
		svc, _, job := setup(t)
		_, err := svc.Escalate(ctx, models.Actor{UserID: 77, Role: models.RolePoster}, EscalateInput{JobID: job.ID, Reason: "x"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("reason required", func(t *testing.T) {
		svc, _, job := setup(t)
		_, err := svc.Escalate(ctx, posterActor, EscalateInput{JobID: job.ID})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestVotingFlow(t *testing.T) {
	ctx := context.Background()
	svc, _, job := setup(t)
	d := escalate(t, svc, job)

	otherReviewer := models.Actor{UserID: 3, Role: models.RoleReviewer}
	_, err := svc.CastVote(ctx, reviewerActor, d.ID, "poster", "photos show no install")
	require.NoError(t, err)
	_, err = svc.CastVote(ctx, otherReviewer, d.ID, models.VotePoster, "")
	require.NoError(t, err)
	_, err = svc.RecordAIOpinion(ctx, systemActor, d.ID, models.VoteContractor, "invoice matches scope")
	require.NoError(t, err)

	summary, err := svc.Tally(ctx, reviewerActor, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.HumanCount)
	assert.Equal(t, LabelCount{Label: models.VotePoster, Count: 2}, *summary.Top)
	assert.Equal(t, LabelCount{Label: models.VoteContractor, Count: 1}, *summary.Second)
	assert.True(t, summary.HasMajority)

	// regenerating the opinion supersedes the old one
	_, err = svc.RecordAIOpinion(ctx, systemActor, d.ID, models.VotePoster, "re-run")
	require.NoError(t, err)
	summary, err = svc.Tally(ctx, reviewerActor, d.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelCount{Label: models.VotePoster, Count: 3}, *summary.Top)
	assert.Nil(t, summary.Second)

	got, err := svc.Get(ctx, posterActor, d.ID)
	require.NoError(t, err)
	active := 0
	for _, v := range got.Votes {
		if v.VoterType == models.VoterTypeAIAdvisory && v.Status == models.VoteStatusActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
	assert.Len(t, got.Votes, 4)
}

func TestCastVote_Rules(t *testing.T) {
	ctx := context.Background()
	svc, _, job := setup(t)
	d := escalate(t, svc, job)

	_, err := svc.CastVote(ctx, posterActor, d.ID, models.VotePoster, "")
	assert.ErrorIs(t, err, apperrors.ErrReviewerRequired)

	_, err = svc.CastVote(ctx, reviewerActor, d.ID, "nobody", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidVote)

	_, err = svc.RecordAIOpinion(ctx, reviewerActor, d.ID, models.VotePoster, "")
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)

	vote, err := svc.CastVote(ctx, adminActor, d.ID, models.VoteContractor, "")
	require.NoError(t, err)
	assert.Equal(t, models.VoterTypeAdmin, vote.VoterType)

	_, err = svc.CastVote(ctx, reviewerActor, 4040, models.VotePoster, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("review then decide then close", func(t *testing.T) {
		svc, store, job := setup(t)
		d := escalate(t, svc, job)

		res, err := svc.Transition(ctx, reviewerActor, d.ID, TransitionInput{Status: "under_review"})
		require.NoError(t, err)
		assert.Equal(t, models.DisputeStatusUnderReview, res.Dispute.Status)

		_, err = svc.Transition(ctx, adminActor, d.ID, TransitionInput{Status: models.DisputeStatusDecided})
		assert.ErrorIs(t, err, apperrors.ErrInvalidDecision)

		decision := "contractor"
		res, err = svc.Transition(ctx, adminActor, d.ID, TransitionInput{Status: models.DisputeStatusDecided, Decision: &decision})
		require.NoError(t, err)
		assert.Equal(t, models.VoteContractor, *res.Dispute.Decision)
		assert.Equal(t, adminActor.UserID, *res.Dispute.DecidedByID)

		// a decided dispute lifts the freeze
		stored, err := store.Jobs().GetByID(ctx, job.ID)
		require.NoError(t, err)
		disputes, err := store.Disputes().ListByJob(ctx, job.ID)
		require.NoError(t, err)
		assert.False(t, release.IsReleaseBlocked(stored, disputes))

		res, err = svc.Transition(ctx, adminActor, d.ID, TransitionInput{Status: models.DisputeStatusClosed})
		require.NoError(t, err)
		assert.Equal(t, models.DisputeStatusClosed, res.Dispute.Status)

		again, err := svc.Transition(ctx, adminActor, d.ID, TransitionInput{Status: models.DisputeStatusClosed})
		require.NoError(t, err)
		assert.True(t, again.Idempotent)

		_, err = svc.Transition(ctx, adminActor, d.ID, TransitionInput{Status: models.DisputeStatusUnderReview})
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})

	t.Run("reviewer cannot decide", func(t *testing.T) {
		svc, _, job := setup(t)
		d := escalate(t, svc, job)
		decision := models.VotePoster
		_, err := svc.Transition(ctx, reviewerActor, d.ID, TransitionInput{Status: models.DisputeStatusDecided, Decision: &decision})
		assert.ErrorIs(t, err, apperrors.ErrAdminRequired)
	})

	t.Run("votes close once decided", func(t *testing.T) {
		svc, _, job := setup(t)
		d := escalate(t, svc, job)
		_, err := svc.Transition(ctx, adminActor, d.ID, TransitionInput{Status: models.DisputeStatusClosed})
		require.NoError(t, err)

		_, err = svc.CastVote(ctx, reviewerActor, d.ID, models.VotePoster, "")
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})
}
