package repositories

import (
	"context"
	"errors"
	"fmt"

	"crewpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pmRequestRepository struct {
	db *gorm.DB
}

func NewPMRequestRepository(db *gorm.DB) PMRequestRepository {
	return &pmRequestRepository{db: db}
}

func (r *pmRequestRepository) Create(ctx context.Context, req *models.PMRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create pm request: %w", err)
	}
	return nil
}

func (r *pmRequestRepository) GetByID(ctx context.Context, id uint) (*models.PMRequest, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *pmRequestRepository) GetForUpdate(ctx context.Context, id uint) (*models.PMRequest, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// get loads children with separate plain queries so the row lock never
// touches an outer join.
func (r *pmRequestRepository) get(q *gorm.DB, id uint) (*models.PMRequest, error) {
	var req models.PMRequest
	if err := q.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPMRequestNotFound
		}
		return nil, fmt.Errorf("failed to get pm request: %w", err)
	}

	plain := r.db.WithContext(q.Statement.Context)
	if err := plain.Where("pm_request_id = ?", id).Order("position ASC, id ASC").Find(&req.LineItems).Error; err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	if err := plain.Where("pm_request_id = ?", id).Order("id ASC").Find(&req.Receipts).Error; err != nil {
		return nil, fmt.Errorf("failed to load receipts: %w", err)
	}
	return &req, nil
}

func (r *pmRequestRepository) Save(ctx context.Context, req *models.PMRequest) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(req).Error; err != nil {
		return fmt.Errorf("failed to update pm request: %w", err)
	}
	return nil
}

func (r *pmRequestRepository) SaveIfStatus(ctx context.Context, req *models.PMRequest, expected models.PMStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PMRequest{}).
		Where("id = ? AND status = ?", req.ID, expected).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(req)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update pm request: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *pmRequestRepository) AddLineItem(ctx context.Context, item *models.PMLineItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to add line item: %w", err)
	}
	return nil
}

func (r *pmRequestRepository) AddReceipt(ctx context.Context, receipt *models.PMReceipt) error {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return fmt.Errorf("failed to add receipt: %w", err)
	}
	return nil
}

func (r *pmRequestRepository) SaveReceipt(ctx context.Context, receipt *models.PMReceipt) error {
	result := r.db.WithContext(ctx).Save(receipt)
	if result.Error != nil {
		return fmt.Errorf("failed to update receipt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

func (r *pmRequestRepository) CreateAudit(ctx context.Context, audit *models.PMRequestAudit) error {
	if err := r.db.WithContext(ctx).Create(audit).Error; err != nil {
		return fmt.Errorf("failed to write pm request audit: %w", err)
	}
	return nil
}

func (r *pmRequestRepository) ListAudits(ctx context.Context, pmRequestID uint) ([]models.PMRequestAudit, error) {
	var audits []models.PMRequestAudit
	err := r.db.WithContext(ctx).
		Where("pm_request_id = ?", pmRequestID).
		Order("id ASC").
		Find(&audits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pm request audits: %w", err)
	}
	return audits, nil
}
