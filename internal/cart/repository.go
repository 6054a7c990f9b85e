package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
)

// Repository exposes persistence operations for customer baskets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	Delete(ctx context.Context, cartID uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("customer_id = ?", customerID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

// Delete removes the cart and its items.
func (r *repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	if err := r.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.DB(ctx).Where("id = ?", cartID).Delete(&models.Cart{}).Error
}
