package repositories

import (
	"context"
	"database/sql"
	"time"

	apperrors "crewpay/internal/errors"
	"crewpay/internal/models"

	"gorm.io/gorm"
)

// Repository failures reuse the domain catalog so services can return
// them unchanged.
var (
	ErrPMRequestNotFound = apperrors.ErrPMRequestNotFound
	ErrJobNotFound       = apperrors.ErrJobNotFound
	ErrDisputeNotFound   = apperrors.ErrDisputeNotFound
	ErrReceiptNotFound   = apperrors.ErrReceiptNotFound
	ErrTransferNotFound  = apperrors.ErrTransferNotFound
	ErrInvalidLedgerRow  = apperrors.ErrInvalidLedgerEntry
	ErrInvalidVoteRow    = apperrors.ErrInvalidVote
	ErrDuplicateActiveAI = apperrors.ErrDuplicateAIVote
	ErrLedgerImmutable   = apperrors.ErrLedgerImmutable
)

// Store groups the repositories a unit of work needs. The value passed to
// an ExecuteInTransaction callback is bound to that transaction.
type Store interface {
	PMRequests() PMRequestRepository
	Jobs() JobRepository
	Disputes() DisputeRepository
	Ledger() LedgerRepository
	Transfers() TransferRepository

	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
	// ExecuteReadOnly runs fn inside a read-only repeatable-read snapshot.
	ExecuteReadOnly(ctx context.Context, fn func(Store) error) error
}

type PMRequestRepository interface {
	Create(ctx context.Context, req *models.PMRequest) error
	GetByID(ctx context.Context, id uint) (*models.PMRequest, error)
	// GetForUpdate locks the request row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uint) (*models.PMRequest, error)
	Save(ctx context.Context, req *models.PMRequest) error
	// SaveIfStatus persists req only while the stored status still equals
	// expected and returns the number of rows written.
	SaveIfStatus(ctx context.Context, req *models.PMRequest, expected models.PMStatus) (int64, error)
	AddLineItem(ctx context.Context, item *models.PMLineItem) error
	AddReceipt(ctx context.Context, receipt *models.PMReceipt) error
	SaveReceipt(ctx context.Context, receipt *models.PMReceipt) error
	CreateAudit(ctx context.Context, audit *models.PMRequestAudit) error
	ListAudits(ctx context.Context, pmRequestID uint) ([]models.PMRequestAudit, error)
}

type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uint) (*models.Job, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Job, error)
	Save(ctx context.Context, job *models.Job) error
	// ListReleased returns up to take jobs whose payout was released,
	// newest first.
	ListReleased(ctx context.Context, take int) ([]models.Job, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, dispute *models.DisputeCase) error
	GetByID(ctx context.Context, id uint) (*models.DisputeCase, error)
	GetForUpdate(ctx context.Context, id uint) (*models.DisputeCase, error)
	ListByJob(ctx context.Context, jobID uint) ([]models.DisputeCase, error)
	ListByJobIDs(ctx context.Context, jobIDs []uint) ([]models.DisputeCase, error)
	// SaveIfStatus persists the dispute only while its raw status still
	// equals expected.
	SaveIfStatus(ctx context.Context, dispute *models.DisputeCase, expected string) (int64, error)
	ListVotes(ctx context.Context, disputeID uint) ([]models.DisputeVote, error)
	CreateVote(ctx context.Context, vote *models.DisputeVote) error
	SupersedeActiveAIVotes(ctx context.Context, disputeID uint) (int64, error)
}

// LedgerRepository deliberately has no update or delete.
type LedgerRepository interface {
	Append(ctx context.Context, entries ...models.LedgerEntry) error
	ListByJob(ctx context.Context, jobID uint) ([]models.LedgerEntry, error)
	ListByJobIDs(ctx context.Context, jobIDs []uint) ([]models.LedgerEntry, error)
	ListByPMRequest(ctx context.Context, pmRequestID uint) ([]models.LedgerEntry, error)
}

type TransferRepository interface {
	Create(ctx context.Context, record *models.TransferRecord) error
	GetByID(ctx context.Context, id uint) (*models.TransferRecord, error)
	Save(ctx context.Context, record *models.TransferRecord) error
	ListByJobIDs(ctx context.Context, jobIDs []uint) ([]models.TransferRecord, error)
	// ListUnowned returns transfers whose job is missing or unresolvable
	// and which were created before olderThan.
	ListUnowned(ctx context.Context, olderThan time.Time, take int) ([]models.TransferRecord, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	if db == nil {
		panic("db is required")
	}
	return &gormStore{db: db}
}

func (s *gormStore) PMRequests() PMRequestRepository { return &pmRequestRepository{db: s.db} }
func (s *gormStore) Jobs() JobRepository             { return &jobRepository{db: s.db} }
func (s *gormStore) Disputes() DisputeRepository     { return &disputeRepository{db: s.db} }
func (s *gormStore) Ledger() LedgerRepository        { return &ledgerRepository{db: s.db} }
func (s *gormStore) Transfers() TransferRepository   { return &transferRepository{db: s.db} }

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	return mapLedgerGuard(err)
}

func (s *gormStore) ExecuteReadOnly(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	}, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
}
