package models

import (
	"time"

	"github.com/lib/pq"
)

// DisputeCase is opened when a support ticket on a job is escalated.
// Status holds the raw value; transition checks work on the normalized form.
type DisputeCase struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	JobID        uint           `gorm:"not null;index" json:"job_id"`
	TicketID     uint           `gorm:"not null;index" json:"ticket_id"`
	FiledByID    uint           `gorm:"not null" json:"filed_by_id"`
	RespondentID uint           `gorm:"not null" json:"respondent_id"`
	Reason       string         `gorm:"not null" json:"reason"`
	Status       string         `gorm:"type:varchar(32);not null;default:'SUBMITTED'" json:"status"`
	Decision     *string        `gorm:"type:varchar(32)" json:"decision,omitempty"`
	DecidedByID  *uint          `json:"decided_by_id,omitempty"`
	DecidedAt    *time.Time     `json:"decided_at,omitempty"`
	Deadline     *time.Time     `json:"deadline,omitempty"`
	Attachments  pq.StringArray `gorm:"type:text[]" json:"attachments"`
	Votes        []DisputeVote  `gorm:"foreignKey:DisputeID" json:"votes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

const (
	DisputeStatusSubmitted     = "SUBMITTED"
	DisputeStatusOpen          = "OPEN"
	DisputeStatusUnderReview   = "UNDER_REVIEW"
	DisputeStatusNeedsMoreInfo = "NEEDS_MORE_INFO"
	DisputeStatusDecided       = "DECIDED"
	DisputeStatusClosed        = "CLOSED"
)

// DisputeVote is an append-only opinion on a dispute outcome.
type DisputeVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DisputeID uint      `gorm:"not null;index" json:"dispute_id"`
	VoterType string    `gorm:"type:varchar(32);not null" json:"voter_type"`
	VoterID   *uint     `gorm:"index" json:"voter_id,omitempty"`
	Status    string    `gorm:"type:varchar(16);not null;default:'ACTIVE'" json:"status"`
	Vote      string    `gorm:"type:varchar(16);not null" json:"vote"`
	Rationale string    `json:"rationale,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

const (
	VoterTypeAdmin      = "ADMIN"
	VoterTypeReviewer   = "REVIEWER"
	VoterTypeAIAdvisory = "AI_ADVISORY"
)

const (
	VoteStatusActive     = "ACTIVE"
	VoteStatusSuperseded = "SUPERSEDED"
)

const (
	VotePoster     = "POSTER"
	VoteContractor = "CONTRACTOR"
)

// IsHuman reports whether the vote came from a person rather than the
// advisory model.
func (v *DisputeVote) IsHuman() bool {
	return v.VoterType != VoterTypeAIAdvisory
}

// Validate checks the fixed record shape before a vote is persisted.
func (v *DisputeVote) Validate() bool {
	if v.Vote != VotePoster && v.Vote != VoteContractor {
		return false
	}
	if v.Status != VoteStatusActive && v.Status != VoteStatusSuperseded {
		return false
	}
	switch v.VoterType {
	case VoterTypeAIAdvisory:
		return v.VoterID == nil
	case VoterTypeAdmin, VoterTypeReviewer:
		return v.VoterID != nil
	default:
		return false
	}
}
