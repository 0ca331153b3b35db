package repositories

import (
	"context"
	"errors"
	"fmt"

	"crewpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type disputeRepository struct {
	db *gorm.DB
}

func NewDisputeRepository(db *gorm.DB) DisputeRepository {
	return &disputeRepository{db: db}
}

func (r *disputeRepository) Create(ctx context.Context, dispute *models.DisputeCase) error {
	if err := r.db.WithContext(ctx).Omit("Votes").Create(dispute).Error; err != nil {
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

func (r *disputeRepository) GetByID(ctx context.Context, id uint) (*models.DisputeCase, error) {
	dispute, err := r.first(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if dispute.Votes, err = r.ListVotes(ctx, id); err != nil {
		return nil, err
	}
	return dispute, nil
}

func (r *disputeRepository) GetForUpdate(ctx context.Context, id uint) (*models.DisputeCase, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *disputeRepository) first(q *gorm.DB, id uint) (*models.DisputeCase, error) {
	var dispute models.DisputeCase
	if err := q.First(&dispute, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}
	return &dispute, nil
}

func (r *disputeRepository) ListByJob(ctx context.Context, jobID uint) ([]models.DisputeCase, error) {
	var disputes []models.DisputeCase
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Order("id ASC").Find(&disputes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	return disputes, nil
}

func (r *disputeRepository) ListByJobIDs(ctx context.Context, jobIDs []uint) ([]models.DisputeCase, error) {
	var disputes []models.DisputeCase
	if len(jobIDs) == 0 {
		return disputes, nil
	}
	err := r.db.WithContext(ctx).Where("job_id IN ?", jobIDs).Order("id ASC").Find(&disputes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	return disputes, nil
}

func (r *disputeRepository) SaveIfStatus(ctx context.Context, dispute *models.DisputeCase, expected string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DisputeCase{}).
		Where("id = ? AND status = ?", dispute.ID, expected).
		Select("*").
		Omit("id", "created_at", "Votes").
		Updates(dispute)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update dispute: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *disputeRepository) ListVotes(ctx context.Context, disputeID uint) ([]models.DisputeVote, error) {
	var votes []models.DisputeVote
	err := r.db.WithContext(ctx).
		Where("dispute_id = ?", disputeID).
		Order("created_at ASC, id ASC").
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

func (r *disputeRepository) CreateVote(ctx context.Context, vote *models.DisputeVote) error {
	if !vote.Validate() {
		return ErrInvalidVoteRow
	}
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateActiveAI
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

func (r *disputeRepository) SupersedeActiveAIVotes(ctx context.Context, disputeID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DisputeVote{}).
		Where("dispute_id = ? AND voter_type = ? AND status = ?", disputeID, models.VoterTypeAIAdvisory, models.VoteStatusActive).
		Update("status", models.VoteStatusSuperseded)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to supersede ai votes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
