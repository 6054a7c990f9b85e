package deliveries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// Repository exposes persistence operations for deliveries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) (*models.Delivery, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Delivery, error)
	List(ctx context.Context, filter ListFilter, limit int) ([]models.Delivery, error)
	OrderItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.OrderItem, error)
	WorkshopsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Workshop, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

// ListFilter narrows delivery listings.
type ListFilter struct {
	Status *enums.DeliveryStatus
	Type   *enums.DeliveryType
}

type repository struct {
	repo.Base
}

// NewRepository constructs a delivery repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, delivery *models.Delivery) (*models.Delivery, error) {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	for i := range delivery.Items {
		if delivery.Items[i].ID == uuid.Nil {
			delivery.Items[i].ID = uuid.New()
		}
		delivery.Items[i].DeliveryID = delivery.ID
	}
	if err := r.DB(ctx).Create(delivery).Error; err != nil {
		return nil, err
	}
	return delivery, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.DB(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("id = ?", id).
		First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

// GetForUpdate loads the delivery and its items under a row lock so that a
// confirmation is applied exactly once.
func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	db := r.DB(ctx)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "deliveries"}})
	}

	var delivery models.Delivery
	if err := db.Where("id = ?", id).First(&delivery).Error; err != nil {
		return nil, err
	}
	if err := r.DB(ctx).Where("delivery_id = ?", delivery.ID).Find(&delivery.Items).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Delivery{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Delivery, error) {
	var rows []models.Delivery
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) OrderItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.OrderItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.OrderItem
	err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *repository) WorkshopsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Workshop, error) {
	var rows []models.Workshop
	err := r.DB(ctx).Where("order_id = ?", orderID).Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit int) ([]models.Delivery, error) {
	db := r.DB(ctx).Model(&models.Delivery{})
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}

	var rows []models.Delivery
	err := db.
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
