package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/metrics"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the stock ledger. Every mutation happens under a row lock so
// a (location, product) quantity can never be driven below zero.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*models.Stock, error)
	ApplyDelta(ctx context.Context, tx *gorm.DB, locationID, productID uuid.UUID, delta int) (*models.Stock, error)
	LocationStock(ctx context.Context, locationID uuid.UUID, params pagination.Params) ([]models.Stock, error)
}

// AdjustInput is a manual ledger correction.
type AdjustInput struct {
	LocationID uuid.UUID
	ProductID  uuid.UUID
	Delta      int
}

type service struct {
	tx      txRunner
	repo    Repository
	metrics *metrics.FulfillmentMetrics
}

// NewService builds the stock ledger service.
func NewService(tx txRunner, repository Repository, m *metrics.FulfillmentMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repository == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{tx: tx, repo: repository, metrics: m}, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.Stock, error) {
	if input.LocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	var result *models.Stock
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.ApplyDelta(ctx, tx, input.LocationID, input.ProductID, input.Delta)
		if err != nil {
			return err
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	direction := "credit"
	if input.Delta < 0 {
		direction = "debit"
	}
	s.metrics.IncAdjustment(direction)
	return result, nil
}

// ApplyDelta mutates one ledger row inside the caller's transaction. The
// row is created at zero when missing; a delta that would take the
// quantity negative fails the whole transaction.
func (s *service) ApplyDelta(ctx context.Context, tx *gorm.DB, locationID, productID uuid.UUID, delta int) (*models.Stock, error) {
	repository := s.repo.WithTx(tx)

	row, err := repository.GetForUpdate(ctx, locationID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading stock row")
	}

	next := row.Quantity + delta
	if next < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock at location").
			WithDetails(map[string]any{
				"location_id": locationID,
				"product_id":  productID,
				"on_hand":     row.Quantity,
				"requested":   -delta,
			})
	}

	if err := repository.UpdateQuantity(ctx, locationID, productID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating stock row")
	}
	row.Quantity = next
	return row, nil
}

func (s *service) LocationStock(ctx context.Context, locationID uuid.UUID, params pagination.Params) ([]models.Stock, error) {
	if locationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}
	rows, err := s.repo.ListByLocation(ctx, locationID, pagination.NormalizeLimit(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing location stock")
	}
	return rows, nil
}
