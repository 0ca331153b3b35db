package models

import (
	"time"

	"gorm.io/datatypes"
)

// PMRequest is a contractor's escrow-backed request to be reimbursed for
// job materials.
type PMRequest struct {
	ID                  uint         `gorm:"primaryKey" json:"id"`
	JobID               uint         `gorm:"not null;index" json:"job_id"`
	ContractorID        uint         `gorm:"not null;index" json:"contractor_id"`
	PosterID            uint         `gorm:"not null;index" json:"poster_id"`
	Status              PMStatus     `gorm:"type:varchar(32);not null;index" json:"status"`
	LineItems           []PMLineItem `gorm:"foreignKey:PMRequestID" json:"line_items"`
	Receipts            []PMReceipt  `gorm:"foreignKey:PMRequestID" json:"receipts"`
	TaxCents            int64        `gorm:"not null;default:0" json:"tax_cents"`
	AutoTotalCents      int64        `gorm:"not null;default:0" json:"auto_total_cents"`
	ManualTotalCents    *int64       `json:"manual_total_cents,omitempty"`
	ApprovedTotalCents  *int64       `json:"approved_total_cents,omitempty"`
	Currency            string       `gorm:"type:char(3);not null" json:"currency"`
	AmendmentReason     *string      `json:"amendment_reason,omitempty"`
	ProposedBudgetCents *int64       `json:"proposed_budget_cents,omitempty"`
	PaymentRef          *string      `json:"payment_ref,omitempty"`
	EscrowRef           *string      `json:"escrow_ref,omitempty"`
	ReceiptTotalCents   *int64       `json:"receipt_total_cents,omitempty"`
	ReleaseAmountCents  *int64       `json:"release_amount_cents,omitempty"`
	RemainderCents      *int64       `json:"remainder_cents,omitempty"`
	SubmittedAt         *time.Time   `json:"submitted_at,omitempty"`
	ApprovedAt          *time.Time   `json:"approved_at,omitempty"`
	FundedAt            *time.Time   `json:"funded_at,omitempty"`
	VerifiedAt          *time.Time   `json:"verified_at,omitempty"`
	ReleasedAt          *time.Time   `json:"released_at,omitempty"`
	ClosedAt            *time.Time   `json:"closed_at,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

func (PMRequest) TableName() string { return "pm_requests" }

// BudgetCents is the figure a poster approves: the manual override when
// present, the computed total otherwise.
func (r *PMRequest) BudgetCents() int64 {
	if r.ManualTotalCents != nil {
		return *r.ManualTotalCents
	}
	return r.AutoTotalCents
}

// RecomputeAutoTotal sums line totals plus tax.
func (r *PMRequest) RecomputeAutoTotal() {
	var total int64
	for _, item := range r.LineItems {
		total += item.LineTotalCents
	}
	r.AutoTotalCents = total + r.TaxCents
}

type PMStatus string

const (
	PMStatusDraft              PMStatus = "DRAFT"
	PMStatusSubmitted          PMStatus = "SUBMITTED"
	PMStatusAmendmentRequested PMStatus = "AMENDMENT_REQUESTED"
	PMStatusApproved           PMStatus = "APPROVED"
	PMStatusRejected           PMStatus = "REJECTED"
	PMStatusPaymentPending     PMStatus = "PAYMENT_PENDING"
	PMStatusFunded             PMStatus = "FUNDED"
	PMStatusReceiptsSubmitted  PMStatus = "RECEIPTS_SUBMITTED"
	PMStatusVerified           PMStatus = "VERIFIED"
	PMStatusReleased           PMStatus = "RELEASED"
	PMStatusClosed             PMStatus = "CLOSED"
)

type PMLineItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PMRequestID    uint      `gorm:"not null;index" json:"pm_request_id"`
	Position       int       `gorm:"not null" json:"position"`
	Description    string    `gorm:"not null" json:"description"`
	Quantity       int64     `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	LineTotalCents int64     `gorm:"not null" json:"line_total_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

func (PMLineItem) TableName() string { return "pm_line_items" }

type PMReceipt struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	PMRequestID         uint       `gorm:"not null;index" json:"pm_request_id"`
	FileURL             string     `gorm:"not null" json:"file_url"`
	Vendor              string     `json:"vendor"`
	ExtractedTotalCents int64      `gorm:"not null" json:"extracted_total_cents"`
	VerifiedTotalCents  *int64     `json:"verified_total_cents,omitempty"`
	Verified            bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedAt          *time.Time `json:"verified_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (PMReceipt) TableName() string { return "pm_receipts" }

// PMRequestAudit is written once per committed transition and never updated.
type PMRequestAudit struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	PMRequestID uint              `gorm:"not null;index" json:"pm_request_id"`
	ActorID     uint              `gorm:"not null" json:"actor_id"`
	ActorRole   string            `gorm:"type:varchar(32)" json:"actor_role"`
	FromStatus  PMStatus          `gorm:"type:varchar(32);not null" json:"from_status"`
	ToStatus    PMStatus          `gorm:"type:varchar(32);not null" json:"to_status"`
	Amounts     datatypes.JSONMap `gorm:"type:jsonb" json:"amounts"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (PMRequestAudit) TableName() string { return "pm_request_audits" }
