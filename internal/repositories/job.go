package repositories

import (
	"context"
	"errors"
	"fmt"

	"crewpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uint) (*models.Job, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *jobRepository) GetForUpdate(ctx context.Context, id uint) (*models.Job, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *jobRepository) first(q *gorm.DB, id uint) (*models.Job, error) {
	var job models.Job
	if err := q.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) Save(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

func (r *jobRepository) ListReleased(ctx context.Context, take int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Where("payout_status = ?", models.PayoutStatusReleased).
		Order("released_at DESC NULLS LAST, id DESC").
		Limit(take).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list released jobs: %w", err)
	}
	return jobs, nil
}
