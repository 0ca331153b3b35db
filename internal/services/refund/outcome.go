package refund

import (
	"time"

	"crewpay/internal/models"
)

type Kind string

const (
	KindCompleted        Kind = "completed"
	KindAlreadyRefunded  Kind = "already_refunded"
	KindAlreadyReleased  Kind = "already_released"
	KindBlockedByDispute Kind = "blocked_by_dispute"
)

// Outcome is the result of RefundJob. The set of implementations is
// closed: only the four types below satisfy it.
type Outcome interface {
	Kind() Kind
	outcome()
}

// Completed means the escrow was refunded in this call.
type Completed struct {
	Job         *models.Job            `json:"job"`
	AmountCents int64                  `json:"amount_cents"`
	Transfer    *models.TransferRecord `json:"transfer"`
}

// AlreadyRefunded is the idempotent replay of a finished refund.
type AlreadyRefunded struct {
	JobID uint `json:"job_id"`
}

// AlreadyReleased means the payout went out and there is nothing left in
// escrow to return.
type AlreadyReleased struct {
	JobID      uint       `json:"job_id"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

// BlockedByDispute means the job is frozen by an unresolved dispute.
type BlockedByDispute struct {
	JobID      uint   `json:"job_id"`
	DisputeIDs []uint `json:"dispute_ids"`
}

func (Completed) Kind() Kind        { return KindCompleted }
func (AlreadyRefunded) Kind() Kind  { return KindAlreadyRefunded }
func (AlreadyReleased) Kind() Kind  { return KindAlreadyReleased }
func (BlockedByDispute) Kind() Kind { return KindBlockedByDispute }

func (Completed) outcome()        {}
func (AlreadyRefunded) outcome()  {}
func (AlreadyReleased) outcome()  {}
func (BlockedByDispute) outcome() {}
