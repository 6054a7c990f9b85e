package customers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
)

// Repository is the narrow customer capability the fulfillment engine
// needs: lookup plus the delivery-time statistics update.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ApplyDeliveryStats(ctx context.Context, id uuid.UUID, items int, revenue decimal.Decimal) error
}

type repository struct {
	repo.Base
}

// NewRepository constructs a customer repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// ApplyDeliveryStats bumps the running sales counters after a confirmed
// customer delivery: one more order served, the delivered item count and
// the revenue attributed to those items.
func (r *repository) ApplyDeliveryStats(ctx context.Context, id uuid.UUID, items int, revenue decimal.Decimal) error {
	return r.DB(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"num_of_orders": gorm.Expr("num_of_orders + ?", 1),
			"num_of_items":  gorm.Expr("num_of_items + ?", items),
			"revenue":       gorm.Expr("revenue + ?", revenue),
		}).Error
}
