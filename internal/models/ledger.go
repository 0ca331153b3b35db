package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerEntry is append-only. The database rejects UPDATE and DELETE on
// this table (see repositories.applyLedgerGuards).
type LedgerEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EntryRef    string    `gorm:"type:uuid;uniqueIndex;not null" json:"entry_ref"`
	JobID       uint      `gorm:"not null;index" json:"job_id"`
	PMRequestID *uint     `gorm:"index" json:"pm_request_id,omitempty"`
	Type        string    `gorm:"type:varchar(32);not null" json:"type"`
	Direction   string    `gorm:"type:varchar(8);not null" json:"direction"`
	Bucket      string    `gorm:"type:varchar(32);not null" json:"bucket"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Currency    string    `gorm:"type:char(3);not null" json:"currency"`
	Memo        string    `json:"memo"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	LedgerTypePMRelease   = "PM_RELEASE"
	LedgerTypePMRemainder = "PM_REMAINDER"
	LedgerTypeJobRefund   = "JOB_REFUND"
	LedgerTypeJobPayout   = "JOB_PAYOUT"
	LedgerTypePlatformFee = "PLATFORM_FEE"
)

const (
	DirectionCredit = "CREDIT"
	DirectionDebit  = "DEBIT"
)

const (
	BucketEscrow            = "ESCROW"
	BucketContractorPayable = "CONTRACTOR_PAYABLE"
	BucketPosterRefund      = "POSTER_REFUND"
	BucketPlatformFee       = "PLATFORM_FEE"
)

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.EntryRef == "" {
		e.EntryRef = uuid.NewString()
	}
	return nil
}

// Validate checks the fixed record shape before an entry is appended.
func (e *LedgerEntry) Validate() bool {
	if e.JobID == 0 || e.AmountCents <= 0 || len(e.Currency) != 3 {
		return false
	}
	if e.Direction != DirectionCredit && e.Direction != DirectionDebit {
		return false
	}
	switch e.Bucket {
	case BucketEscrow, BucketContractorPayable, BucketPosterRefund, BucketPlatformFee:
	default:
		return false
	}
	switch e.Type {
	case LedgerTypePMRelease, LedgerTypePMRemainder, LedgerTypeJobRefund, LedgerTypeJobPayout, LedgerTypePlatformFee:
		return true
	}
	return false
}

// SignedAmount is positive for credits and negative for debits.
func (e *LedgerEntry) SignedAmount() int64 {
	if e.Direction == DirectionDebit {
		return -e.AmountCents
	}
	return e.AmountCents
}

// DoubleEntry builds a balanced debit/credit pair moving amountCents from
// one bucket to another.
func DoubleEntry(jobID uint, pmRequestID *uint, entryType, from, to string, amountCents int64, currency, memo string) []LedgerEntry {
	return []LedgerEntry{
		{JobID: jobID, PMRequestID: pmRequestID, Type: entryType, Direction: DirectionDebit, Bucket: from, AmountCents: amountCents, Currency: currency, Memo: memo},
		{JobID: jobID, PMRequestID: pmRequestID, Type: entryType, Direction: DirectionCredit, Bucket: to, AmountCents: amountCents, Currency: currency, Memo: memo},
	}
}
