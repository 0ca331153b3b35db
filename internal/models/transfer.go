package models

import "time"

// TransferRecord is one leg of an external money movement. JobID is
// nullable: processor webhooks can record a leg before it is matched.
type TransferRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	JobID       *uint     `gorm:"index" json:"job_id,omitempty"`
	PMRequestID *uint     `gorm:"index" json:"pm_request_id,omitempty"`
	Role        string    `gorm:"type:varchar(32);not null" json:"role"`
	Status      string    `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Currency    string    `gorm:"type:char(3);not null" json:"currency"`
	Method      string    `gorm:"type:varchar(32)" json:"method"`
	ExternalRef *string   `json:"external_ref,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	TransferRolePlatformFee      = "PLATFORM_FEE"
	TransferRoleContractorPayout = "CONTRACTOR_PAYOUT"
	TransferRolePMRelease        = "PM_RELEASE"
	TransferRoleRefund           = "REFUND"
)

const (
	TransferStatusPending   = "PENDING"
	TransferStatusSucceeded = "SUCCEEDED"
	TransferStatusFailed    = "FAILED"
)

const (
	TransferMethodStripe  = "stripe"
	TransferMethodSandbox = "sandbox"
)
