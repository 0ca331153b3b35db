package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crewpay/internal/models"

	"gorm.io/gorm"
)

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, record *models.TransferRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create transfer record: %w", err)
	}
	return nil
}

func (r *transferRepository) GetByID(ctx context.Context, id uint) (*models.TransferRecord, error) {
	var record models.TransferRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer record: %w", err)
	}
	return &record, nil
}

func (r *transferRepository) Save(ctx context.Context, record *models.TransferRecord) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to update transfer record: %w", err)
	}
	return nil
}

func (r *transferRepository) ListByJobIDs(ctx context.Context, jobIDs []uint) ([]models.TransferRecord, error) {
	var records []models.TransferRecord
	if len(jobIDs) == 0 {
		return records, nil
	}
	if err := r.db.WithContext(ctx).Where("job_id IN ?", jobIDs).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list transfer records: %w", err)
	}
	return records, nil
}

func (r *transferRepository) ListUnowned(ctx context.Context, olderThan time.Time, take int) ([]models.TransferRecord, error) {
	var records []models.TransferRecord
	err := r.db.WithContext(ctx).
		Table("transfer_records AS t").
		Select("t.*").
		Joins("LEFT JOIN jobs j ON j.id = t.job_id").
		Where("j.id IS NULL AND t.created_at < ?", olderThan).
		Order("t.id ASC").
		Limit(take).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unowned transfer records: %w", err)
	}
	return records, nil
}
