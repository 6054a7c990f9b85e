package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
)

// Repository exposes persistence operations for the stock ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetForUpdate(ctx context.Context, locationID, productID uuid.UUID) (*models.Stock, error)
	UpdateQuantity(ctx context.Context, locationID, productID uuid.UUID, quantity int) error
	FindSource(ctx context.Context, productID uuid.UUID, needed int) (*models.Stock, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID, limit int) ([]models.Stock, error)
}

type repository struct {
	repo.Base
}

// NewRepository constructs a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// GetForUpdate loads the ledger row for the pair, creating it with zero
// quantity when absent. On Postgres the row is held under FOR UPDATE for
// the remainder of the transaction.
func (r *repository) GetForUpdate(ctx context.Context, locationID, productID uuid.UUID) (*models.Stock, error) {
	db := r.DB(ctx)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row models.Stock
	err := db.
		Where(models.Stock{LocationID: locationID, ProductID: productID}).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) UpdateQuantity(ctx context.Context, locationID, productID uuid.UUID, quantity int) error {
	return r.DB(ctx).
		Model(&models.Stock{}).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		Update("quantity", quantity).Error
}

// FindSource picks the best-stocked location holding at least the needed
// quantity. The read is unlocked; the debit re-checks under lock later.
func (r *repository) FindSource(ctx context.Context, productID uuid.UUID, needed int) (*models.Stock, error) {
	var row models.Stock
	err := r.DB(ctx).
		Where("product_id = ? AND quantity >= ?", productID, needed).
		Order("quantity DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByLocation(ctx context.Context, locationID uuid.UUID, limit int) ([]models.Stock, error) {
	var rows []models.Stock
	err := r.DB(ctx).
		Preload("Product").
		Where("location_id = ?", locationID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
