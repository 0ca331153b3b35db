package dispute

import (
	"sort"

	"crewpay/internal/models"
)

// LabelCount is one outcome label and how many counted votes chose it.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is the advisory tally of a dispute. It never changes the
// dispute itself; an administrator applies a decision separately.
type Summary struct {
	DisputeID   uint                `json:"dispute_id"`
	HumanCount  int                 `json:"human_count"`
	AIVote      *models.DisputeVote `json:"ai_vote,omitempty"`
	CountedSize int                 `json:"counted_size"`
	Counts      []LabelCount        `json:"counts"`
	Top         *LabelCount         `json:"top,omitempty"`
	Second      *LabelCount         `json:"second,omitempty"`
	HasMajority bool                `json:"has_majority"`
	IsTie       bool                `json:"is_tie"`
}

// TallyVotes counts one vote per human voter plus the current advisory
// opinion. A human voter's earliest vote is the one counted; later votes
// by the same voter are kept on record but ignored here.
func TallyVotes(votes []models.DisputeVote) Summary {
	ordered := make([]models.DisputeVote, len(votes))
	copy(ordered, votes)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	seen := make(map[uint]bool)
	var counted []models.DisputeVote
	var ai *models.DisputeVote
	for i := range ordered {
		v := ordered[i]
		if !v.IsHuman() {
			if v.Status == models.VoteStatusActive {
				// ordered ascending, so the last active one wins
				ai = &ordered[i]
			}
			continue
		}
		if v.VoterID == nil || seen[*v.VoterID] {
			continue
		}
		seen[*v.VoterID] = true
		counted = append(counted, v)
	}

	var summary Summary
	summary.HumanCount = len(counted)
	if ai != nil {
		aiCopy := *ai
		summary.AIVote = &aiCopy
		counted = append(counted, aiCopy)
	}
	summary.CountedSize = len(counted)
	if len(counted) > 0 {
		summary.DisputeID = counted[0].DisputeID
	}

	byLabel := make(map[string]int)
	for _, v := range counted {
		byLabel[v.Vote]++
	}
	for label, n := range byLabel {
		summary.Counts = append(summary.Counts, LabelCount{Label: label, Count: n})
	}
	sort.Slice(summary.Counts, func(i, j int) bool {
		if summary.Counts[i].Count != summary.Counts[j].Count {
			return summary.Counts[i].Count > summary.Counts[j].Count
		}
		return summary.Counts[i].Label < summary.Counts[j].Label
	})

	if len(summary.Counts) > 0 {
		top := summary.Counts[0]
		summary.Top = &top
		summary.HasMajority = top.Count*2 > summary.CountedSize
	}
	if len(summary.Counts) > 1 {
		second := summary.Counts[1]
		summary.Second = &second
		summary.IsTie = second.Count == summary.Top.Count
	}
	return summary
}
