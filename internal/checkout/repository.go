package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
)

// Repository persists the order graph produced by a checkout.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItem(ctx context.Context, item *models.OrderItem) (*models.OrderItem, error)
	CreateOrderItemImages(ctx context.Context, images []models.OrderItemImage) error
	CreateWorkshop(ctx context.Context, workshop *models.Workshop) (*models.Workshop, error)
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MeasurementImageRefs(ctx context.Context, measurementID uuid.UUID) ([]string, error)
}

type repository struct {
	repo.Base
}

// NewRepository constructs a checkout repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItem(ctx context.Context, item *models.OrderItem) (*models.OrderItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) CreateOrderItemImages(ctx context.Context, images []models.OrderItemImage) error {
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		if images[i].ID == uuid.Nil {
			images[i].ID = uuid.New()
		}
	}
	return r.DB(ctx).Create(&images).Error
}

func (r *repository) CreateWorkshop(ctx context.Context, workshop *models.Workshop) (*models.Workshop, error) {
	if workshop.ID == uuid.Nil {
		workshop.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(workshop).Error; err != nil {
		return nil, err
	}
	return workshop, nil
}

func (r *repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items").
		Preload("Items.Images").
		Preload("Workshops").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MeasurementImageRefs returns the photo references recorded against the
// measurement, for snapshotting onto order items.
func (r *repository) MeasurementImageRefs(ctx context.Context, measurementID uuid.UUID) ([]string, error) {
	var refs []string
	err := r.DB(ctx).
		Model(&models.MeasurementImage{}).
		Where("measurement_id = ?", measurementID).
		Order("created_at ASC").
		Pluck("url", &refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}
