package dispute

import (
	"testing"
	"time"

	"crewpay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func human(id uint, voter uint, vote string, offset time.Duration) models.DisputeVote {
	v := voter
	return models.DisputeVote{
		ID: id, DisputeID: 7, VoterType: models.VoterTypeReviewer, VoterID: &v,
		Status: models.VoteStatusActive, Vote: vote, CreatedAt: t0.Add(offset),
	}
}

func ai(id uint, status, vote string, offset time.Duration) models.DisputeVote {
	return models.DisputeVote{
		ID: id, DisputeID: 7, VoterType: models.VoterTypeAIAdvisory,
		Status: status, Vote: vote, CreatedAt: t0.Add(offset),
	}
}

func TestTallyVotes_HumanMajorityOverAI(t *testing.T) {
	summary := TallyVotes([]models.DisputeVote{
		human(1, 100, models.VotePoster, 0),
		human(2, 101, models.VotePoster, time.Minute),
		ai(3, models.VoteStatusActive, models.VoteContractor, 2*time.Minute),
	})

	assert.Equal(t, 2, summary.HumanCount)
	assert.Equal(t, 3, summary.CountedSize)
	require.NotNil(t, summary.Top)
	assert.Equal(t, LabelCount{Label: models.VotePoster, Count: 2}, *summary.Top)
	require.NotNil(t, summary.Second)
	assert.Equal(t, LabelCount{Label: models.VoteContractor, Count: 1}, *summary.Second)
	assert.True(t, summary.HasMajority)
	assert.False(t, summary.IsTie)
}

func TestTallyVotes_SupersededAIIgnored(t *testing.T) {
	summary := TallyVotes([]models.DisputeVote{
		human(1, 100, models.VotePoster, 0),
		human(2, 101, models.VotePoster, time.Minute),
		ai(3, models.VoteStatusSuperseded, models.VoteContractor, 2*time.Minute),
		ai(4, models.VoteStatusActive, models.VotePoster, 3*time.Minute),
	})

	require.NotNil(t, summary.Top)
	assert.Equal(t, LabelCount{Label: models.VotePoster, Count: 3}, *summary.Top)
	assert.Nil(t, summary.Second)
	assert.True(t, summary.HasMajority)
	assert.False(t, summary.IsTie)
	require.NotNil(t, summary.AIVote)
	assert.Equal(t, uint(4), summary.AIVote.ID)
}

func TestTallyVotes_EarliestHumanVoteCounts(t *testing.T) {
	// voter 100 changes their mind; only the first vote is counted
	summary := TallyVotes([]models.DisputeVote{
		human(5, 100, models.VoteContractor, 5*time.Minute),
		human(1, 100, models.VotePoster, 0),
		human(2, 101, models.VoteContractor, time.Minute),
	})

	assert.Equal(t, 2, summary.HumanCount)
	assert.True(t, summary.IsTie)
	assert.False(t, summary.HasMajority)
	// equal counts are ordered by label
	assert.Equal(t, models.VoteContractor, summary.Top.Label)
	assert.Equal(t, models.VotePoster, summary.Second.Label)
}

func TestTallyVotes_LatestActiveAIWins(t *testing.T) {
	summary := TallyVotes([]models.DisputeVote{
		ai(1, models.VoteStatusActive, models.VotePoster, 0),
		ai(2, models.VoteStatusActive, models.VoteContractor, time.Minute),
	})

	assert.Equal(t, 0, summary.HumanCount)
	assert.Equal(t, 1, summary.CountedSize)
	assert.Equal(t, models.VoteContractor, summary.Top.Label)
	assert.True(t, summary.HasMajority)
}

func TestTallyVotes_PluralityIsNotMajority(t *testing.T) {
	summary := TallyVotes([]models.DisputeVote{
		human(1, 100, models.VotePoster, 0),
		human(2, 101, models.VoteContractor, time.Minute),
		ai(3, models.VoteStatusActive, models.VotePoster, 2*time.Minute),
		human(4, 102, models.VoteContractor, 3*time.Minute),
	})

	assert.Equal(t, 4, summary.CountedSize)
	assert.True(t, summary.IsTie)
	assert.False(t, summary.HasMajority)
}

func TestTallyVotes_Empty(t *testing.T) {
	summary := TallyVotes(nil)
	assert.Zero(t, summary.CountedSize)
	assert.Nil(t, summary.Top)
	assert.Nil(t, summary.Second)
	assert.False(t, summary.HasMajority)
	assert.False(t, summary.IsTie)
}
