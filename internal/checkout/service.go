package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/cart"
	"github.com/atelierhq/atelier-backend/internal/customers"
	"github.com/atelierhq/atelier-backend/internal/invoices"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/metrics"
	"github.com/atelierhq/atelier-backend/pkg/sequence"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts a customer's cart into an order with one workshop per
// line and an optional invoice binding.
type Service interface {
	Execute(ctx context.Context, input Input) (*models.Order, error)
}

// Input captures the payment arrangement agreed at the counter.
type Input struct {
	CustomerID    uuid.UUID
	PaymentMethod enums.PaymentMethod
	PaymentType   enums.PaymentType
	Priority      enums.OrderPriority
	DueDate       *time.Time
	BankName      *string
	AccountNumber *string
	Notes         *string
	InvoiceID     *uuid.UUID
}

type service struct {
	tx        txRunner
	repo      Repository
	cartRepo  cart.Repository
	invoices  invoices.Repository
	customers customers.Repository
	metrics   *metrics.FulfillmentMetrics
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	repository Repository,
	cartRepo cart.Repository,
	invoiceRepo invoices.Repository,
	customerRepo customers.Repository,
	m *metrics.FulfillmentMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repository == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if invoiceRepo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{
		tx:        tx,
		repo:      repository,
		cartRepo:  cartRepo,
		invoices:  invoiceRepo,
		customers: customerRepo,
		metrics:   m,
	}, nil
}

func (s *service) Execute(ctx context.Context, input Input) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.PaymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}
	if input.Priority == "" {
		input.Priority = enums.OrderPriorityNormal
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)
		invoiceRepo := s.invoices.WithTx(tx)
		customerRepo := s.customers.WithTx(tx)

		if _, err := customerRepo.FindByID(ctx, input.CustomerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading customer")
		}

		basket, err := cartRepo.FindByCustomer(ctx, input.CustomerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
		}
		if basket == nil || len(basket.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}

		orderCode, err := sequence.Next(tx, sequence.FamilyOrder)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issuing order code")
		}

		total := decimal.Zero
		for _, line := range basket.Items {
			if line.Product == nil {
				return pkgerrors.New(pkgerrors.CodeDependency, "cart line product missing")
			}
			total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order := &models.Order{
			Code:          orderCode,
			CustomerID:    input.CustomerID,
			Status:        enums.OrderStatusPending,
			Priority:      input.Priority,
			PaymentMethod: input.PaymentMethod,
			PaymentType:   input.PaymentType,
			TotalAmount:   total,
			DueDate:       input.DueDate,
			BankName:      input.BankName,
			AccountNumber: input.AccountNumber,
			Notes:         input.Notes,
		}
		if _, err := repository.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
		}

		for _, line := range basket.Items {
			item := &models.OrderItem{
				OrderID:            order.ID,
				ProductID:          line.ProductID,
				MeasurementID:      line.MeasurementID,
				Quantity:           line.Quantity,
				PriceEach:          line.Product.Price,
				CollectionCategory: line.CollectionCategory,
			}
			if _, err := repository.CreateOrderItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order item")
			}

			refs, err := repository.MeasurementImageRefs(ctx, line.MeasurementID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading measurement images")
			}
			images := make([]models.OrderItemImage, 0, len(refs))
			for _, ref := range refs {
				images = append(images, models.OrderItemImage{OrderItemID: item.ID, URL: ref})
			}
			if err := repository.CreateOrderItemImages(ctx, images); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "snapshotting measurement images")
			}

			workshopCode, err := sequence.Next(tx, sequence.FamilyWorkshop)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issuing workshop code")
			}
			workshop := &models.Workshop{
				Code:        workshopCode,
				OrderID:     order.ID,
				OrderItemID: item.ID,
				ProductID:   line.ProductID,
				Status:      enums.WorkshopStatusOnRequest,
			}
			if line.Product.Type != "" {
				garmentType := line.Product.Type
				workshop.Type = &garmentType
			}
			if _, err := repository.CreateWorkshop(ctx, workshop); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating workshop")
			}
		}

		if err := s.bindInvoice(ctx, invoiceRepo, input, order); err != nil {
			return err
		}

		if err := cartRepo.Delete(ctx, basket.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
		}

		result, err = repository.FindOrderByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCheckout()
	return result, nil
}

// bindInvoice attaches the explicitly named invoice. The invoice must be
// unbound and belong to the checking-out customer; no id means no binding.
// The issued total is backfilled from the order total.
func (s *service) bindInvoice(ctx context.Context, invoiceRepo invoices.Repository, input Input, order *models.Order) error {
	if input.InvoiceID == nil {
		return nil
	}

	invoice, err := invoiceRepo.FindByID(ctx, *input.InvoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading invoice")
	}
	if invoice.CustomerID == nil || *invoice.CustomerID != order.CustomerID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found for customer")
	}
	if invoice.OrderID != nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice already bound to an order")
	}
	if err := invoiceRepo.BindToOrder(ctx, invoice.ID, order.ID, order.TotalAmount); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "binding invoice")
	}
	return nil
}
