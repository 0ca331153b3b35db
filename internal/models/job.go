package models

import "time"

// Job is owned by the marketplace; the escrow core only reads it and
// flips the payout/escrow gating fields.
type Job struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	PosterID      uint       `gorm:"not null;index" json:"poster_id"`
	ContractorID  uint       `gorm:"not null;index" json:"contractor_id"`
	Title         string     `json:"title"`
	Status        string     `gorm:"type:varchar(32);not null;index" json:"status"`
	PayoutStatus  string     `gorm:"type:varchar(32);not null;default:'PENDING'" json:"payout_status"`
	PaymentStatus string     `gorm:"type:varchar(32);not null;default:'UNPAID'" json:"payment_status"`
	EscrowStatus  string     `gorm:"type:varchar(32);not null;default:'NONE'" json:"escrow_status"`
	AmountCents   int64      `gorm:"not null" json:"amount_cents"`
	Currency      string     `gorm:"type:char(3);not null" json:"currency"`
	PaymentRef    *string    `json:"payment_ref,omitempty"`
	ReleasedAt    *time.Time `gorm:"index" json:"released_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

const (
	JobStatusOpen       = "OPEN"
	JobStatusInProgress = "IN_PROGRESS"
	JobStatusCompleted  = "COMPLETED"
	JobStatusDisputed   = "DISPUTED"
	JobStatusCancelled  = "CANCELLED"
)

const (
	PayoutStatusPending  = "PENDING"
	PayoutStatusReleased = "RELEASED"
)

const (
	PaymentStatusUnpaid   = "UNPAID"
	PaymentStatusEscrowed = "ESCROWED"
	PaymentStatusRefunded = "REFUNDED"
)

const (
	EscrowStatusNone     = "NONE"
	EscrowStatusHeld     = "HELD"
	EscrowStatusReleased = "RELEASED"
	EscrowStatusRefunded = "REFUNDED"
)
