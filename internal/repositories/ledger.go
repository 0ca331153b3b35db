package repositories

import (
	"context"
	"fmt"

	"crewpay/internal/models"

	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Append(ctx context.Context, entries ...models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if !entries[i].Validate() {
			return fmt.Errorf("%w: entry %d (%s %s %s)", ErrInvalidLedgerRow, i, entries[i].Type, entries[i].Direction, entries[i].Bucket)
		}
	}
	if err := r.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to append ledger entries: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListByJob(ctx context.Context, jobID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListByJobIDs(ctx context.Context, jobIDs []uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if len(jobIDs) == 0 {
		return entries, nil
	}
	if err := r.db.WithContext(ctx).Where("job_id IN ?", jobIDs).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListByPMRequest(ctx context.Context, pmRequestID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).Where("pm_request_id = ?", pmRequestID).Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}
