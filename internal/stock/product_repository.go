package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
)

// ProductRepository covers catalog lookups and the aggregate quantity that
// moves with the per-location ledger.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	AdjustGlobalQuantity(ctx context.Context, id uuid.UUID, delta int) error
}

type productRepository struct {
	repo.Base
}

// NewProductRepository constructs a product repository bound to the provided DB.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{Base: repo.NewBase(db)}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &productRepository{Base: repo.NewBase(tx)}
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustGlobalQuantity moves the aggregate on-hand counter under the same
// locking discipline as the per-location rows. A negative result fails the
// enclosing transaction.
func (r *productRepository) AdjustGlobalQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	db := r.DB(ctx)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product models.Product
	if err := db.Where("id = ?", id).First(&product).Error; err != nil {
		return err
	}

	next := product.Quantity + delta
	if next < 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient global stock").
			WithDetails(map[string]any{
				"product_id": id,
				"on_hand":    product.Quantity,
				"requested":  -delta,
			})
	}

	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("quantity", next).Error
}
