package workshops

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// Repository exposes persistence operations for production jobs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, status *enums.WorkshopStatus, limit int) ([]models.Workshop, error)
}

type repository struct {
	repo.Base
}

// NewRepository constructs a workshop repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	var workshop models.Workshop
	err := r.DB(ctx).
		Preload("Order").
		Preload("Order.Customer").
		Preload("OrderItem").
		Where("id = ?", id).
		First(&workshop).Error
	if err != nil {
		return nil, err
	}
	return &workshop, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Workshop{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, status *enums.WorkshopStatus, limit int) ([]models.Workshop, error) {
	db := r.DB(ctx).Preload("Order")
	if status != nil {
		db = db.Where("status = ?", *status)
	}
	var rows []models.Workshop
	err := db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
