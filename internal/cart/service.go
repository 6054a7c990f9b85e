package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service builds customer baskets ahead of checkout.
type Service interface {
	AddItem(ctx context.Context, input AddItemInput) (*models.Cart, error)
	GetCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
}

// AddItemInput is one basket line request.
type AddItemInput struct {
	CustomerID         uuid.UUID
	ProductID          uuid.UUID
	MeasurementID      uuid.UUID
	Quantity           int
	CollectionCategory *string
}

type service struct {
	tx       txRunner
	repo     Repository
	products productLoader
}

// NewService builds the cart service.
func NewService(tx txRunner, repository Repository, products productLoader) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{tx: tx, repo: repository, products: products}, nil
}

// AddItem appends a line to the customer's cart, creating the cart on first
// use. A line matching on product, measurement and collection category is
// merged by incrementing its quantity instead of duplicating it.
func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.Cart, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.MeasurementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "measurement id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)

		record, err := repository.FindByCustomer(ctx, input.CustomerID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
			}
			record, err = repository.Create(ctx, &models.Cart{CustomerID: input.CustomerID})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating cart")
			}
		}

		if existing := findMatchingLine(record.Items, input); existing != nil {
			if err := repository.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+input.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merging cart line")
			}
		} else {
			item := &models.CartItem{
				CartID:             record.ID,
				ProductID:          input.ProductID,
				MeasurementID:      input.MeasurementID,
				Quantity:           input.Quantity,
				CollectionCategory: input.CollectionCategory,
			}
			if _, err := repository.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating cart line")
			}
		}

		result, err = repository.FindByCustomer(ctx, input.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	record, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	return record, nil
}

// findMatchingLine returns the line matching product, measurement and
// collection category exactly, or nil.
func findMatchingLine(items []models.CartItem, input AddItemInput) *models.CartItem {
	for i := range items {
		item := &items[i]
		if item.ProductID != input.ProductID || item.MeasurementID != input.MeasurementID {
			continue
		}
		if !equalCategory(item.CollectionCategory, input.CollectionCategory) {
			continue
		}
		return item
	}
	return nil
}

func equalCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
