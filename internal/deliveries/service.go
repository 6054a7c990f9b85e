package deliveries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/customers"
	"github.com/atelierhq/atelier-backend/internal/stock"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/metrics"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
	"github.com/atelierhq/atelier-backend/pkg/sequence"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the fulfillment transaction. Confirming a delivery is the
// single point where goods leave a location, the catalog aggregate moves,
// and an order can complete.
type Service interface {
	CreateScheduled(ctx context.Context, tx *gorm.DB, delivery *models.Delivery) (*models.Delivery, error)
	CreateInternalTransfer(ctx context.Context, input TransferInput) (*models.Delivery, error)
	ConfirmDelivery(ctx context.Context, deliveryID uuid.UUID, proofRef *string) (*models.Delivery, error)
	UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) (*models.Delivery, error)
	GetDelivery(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error)
	ListDeliveries(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Delivery, error)
}

// TransferInput moves stock between two locations.
type TransferInput struct {
	SourceLocationID      uuid.UUID
	DestinationLocationID uuid.UUID
	CourierID             *uuid.UUID
	ScheduledAt           *time.Time
	IsPriority            bool
	Notes                 *string
	Items                 []TransferItem
}

// TransferItem is one product line on an internal transfer.
type TransferItem struct {
	ProductID uuid.UUID
	Quantity  int
}

type service struct {
	tx        txRunner
	repo      Repository
	stocks    stock.Service
	products  stock.ProductRepository
	customers customers.Repository
	metrics   *metrics.FulfillmentMetrics
}

// NewService builds the delivery service.
func NewService(
	tx txRunner,
	repository Repository,
	stocks stock.Service,
	products stock.ProductRepository,
	customerRepo customers.Repository,
	m *metrics.FulfillmentMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repository == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if stocks == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{
		tx:        tx,
		repo:      repository,
		stocks:    stocks,
		products:  products,
		customers: customerRepo,
		metrics:   m,
	}, nil
}

// CreateScheduled persists a fully-built delivery inside the caller's
// transaction. Used at workshop dispatch time, where the delivery and the
// workshop transition must commit together.
func (s *service) CreateScheduled(ctx context.Context, tx *gorm.DB, delivery *models.Delivery) (*models.Delivery, error) {
	return s.repo.WithTx(tx).Create(ctx, delivery)
}

// CreateInternalTransfer schedules a stock movement between two locations.
// Stock is not reserved up front; availability is enforced at confirmation.
func (s *service) CreateInternalTransfer(ctx context.Context, input TransferInput) (*models.Delivery, error) {
	if input.SourceLocationID == uuid.Nil || input.DestinationLocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and destination location ids required")
	}
	if input.SourceLocationID == input.DestinationLocationID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and destination must differ")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	var result *models.Delivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		for _, item := range input.Items {
			if _, err := products.FindByID(ctx, item.ProductID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"product_id": item.ProductID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
			}
		}

		code, err := sequence.Next(tx, sequence.FamilyDelivery)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issuing delivery code")
		}

		delivery := &models.Delivery{
			Code:                  code,
			Type:                  enums.DeliveryTypeTransfer,
			Status:                enums.DeliveryStatusScheduled,
			SourceLocationID:      input.SourceLocationID,
			DestinationKind:       enums.DestinationLocation,
			DestinationLocationID: &input.DestinationLocationID,
			CourierID:             input.CourierID,
			ScheduledAt:           input.ScheduledAt,
			IsPriority:            input.IsPriority,
			Notes:                 input.Notes,
		}
		for _, item := range input.Items {
			delivery.Items = append(delivery.Items, models.DeliveryItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		result, err = s.repo.WithTx(tx).Create(ctx, delivery)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating transfer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConfirmDelivery executes the fulfillment transaction. The source location
// is debited per item; a customer destination also moves the catalog
// aggregate and the buyer's sales statistics, while a location destination
// credits the receiving ledger. Confirming an already delivered record only
// updates the proof reference.
func (s *service) ConfirmDelivery(ctx context.Context, deliveryID uuid.UUID, proofRef *string) (*models.Delivery, error) {
	if deliveryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}

	started := time.Now()
	var result *models.Delivery
	var deliveryType enums.DeliveryType
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)

		delivery, err := repository.GetForUpdate(ctx, deliveryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading delivery")
		}
		deliveryType = delivery.Type

		if delivery.Status == enums.DeliveryStatusDelivered {
			if proofRef != nil {
				if err := repository.Update(ctx, delivery.ID, map[string]any{"proof_ref": *proofRef}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating proof reference")
				}
			}
			result, err = repository.FindByID(ctx, delivery.ID)
			return err
		}
		if delivery.Status == enums.DeliveryStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery is cancelled")
		}
		if len(delivery.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery has no items")
		}

		for _, item := range delivery.Items {
			if _, err := s.stocks.ApplyDelta(ctx, tx, delivery.SourceLocationID, item.ProductID, -item.Quantity); err != nil {
				return err
			}
		}

		dest := delivery.Destination()
		switch {
		case dest.IsCustomer():
			if err := s.settleCustomer(ctx, tx, delivery, dest.ID); err != nil {
				return err
			}
		case dest.IsLocation():
			for _, item := range delivery.Items {
				if _, err := s.stocks.ApplyDelta(ctx, tx, dest.ID, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery has no resolvable destination")
		}

		updates := map[string]any{
			"status":       enums.DeliveryStatusDelivered,
			"delivered_at": time.Now().UTC(),
		}
		if proofRef != nil {
			updates["proof_ref"] = *proofRef
		}
		if err := repository.Update(ctx, delivery.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking delivery delivered")
		}

		if delivery.OrderID != nil {
			if err := s.recheckOrderCompletion(ctx, repository, *delivery.OrderID); err != nil {
				return err
			}
		}

		result, err = repository.FindByID(ctx, delivery.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDeliveryConfirmed(string(deliveryType))
	s.metrics.ObserveTxDuration("confirm_delivery", time.Since(started))
	return result, nil
}

// settleCustomer moves the catalog aggregate and the buyer's statistics for
// a confirmed customer delivery. Revenue uses the price captured on the
// order item at checkout, not the current catalog price.
func (s *service) settleCustomer(ctx context.Context, tx *gorm.DB, delivery *models.Delivery, customerID uuid.UUID) error {
	products := s.products.WithTx(tx)

	totalItems := 0
	orderItemIDs := make([]uuid.UUID, 0, len(delivery.Items))
	quantities := make(map[uuid.UUID]int, len(delivery.Items))
	for _, item := range delivery.Items {
		if err := products.AdjustGlobalQuantity(ctx, item.ProductID, -item.Quantity); err != nil {
			return err
		}
		totalItems += item.Quantity
		if item.OrderItemID != nil {
			orderItemIDs = append(orderItemIDs, *item.OrderItemID)
			quantities[*item.OrderItemID] = item.Quantity
		}
	}

	orderItems, err := s.repo.WithTx(tx).OrderItemsByIDs(ctx, orderItemIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order items")
	}
	revenue := decimal.Zero
	for _, orderItem := range orderItems {
		qty := quantities[orderItem.ID]
		revenue = revenue.Add(orderItem.PriceEach.Mul(decimal.NewFromInt(int64(qty))))
	}

	err = s.customers.WithTx(tx).ApplyDeliveryStats(ctx, customerID, totalItems, revenue)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating customer statistics")
	}
	return nil
}

// recheckOrderCompletion marks the order completed once every workshop is
// completed and every order delivery is delivered. The delivery being
// confirmed is already flagged delivered at this point.
func (s *service) recheckOrderCompletion(ctx context.Context, repository Repository, orderID uuid.UUID) error {
	workshops, err := repository.WorkshopsByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order workshops")
	}
	for _, workshop := range workshops {
		if workshop.Status != enums.WorkshopStatusCompleted {
			return nil
		}
	}

	deliveries, err := repository.ListByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order deliveries")
	}
	for _, delivery := range deliveries {
		if delivery.Status != enums.DeliveryStatusDelivered {
			return nil
		}
	}

	if err := repository.UpdateOrderStatus(ctx, orderID, enums.OrderStatusCompleted); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "completing order")
	}
	return nil
}

// UpdateStatus handles courier progress updates. Delivered is reserved for
// ConfirmDelivery, and a delivered record can no longer move.
func (s *service) UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) (*models.Delivery, error) {
	if deliveryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery status")
	}
	if status == enums.DeliveryStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivered status requires confirmation")
	}

	var result *models.Delivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)

		delivery, err := repository.GetForUpdate(ctx, deliveryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading delivery")
		}
		if delivery.Status == enums.DeliveryStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery already delivered")
		}

		if err := repository.Update(ctx, delivery.ID, map[string]any{"status": status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating delivery status")
		}
		result, err = repository.FindByID(ctx, delivery.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetDelivery(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	delivery, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading delivery")
	}
	return delivery, nil
}

func (s *service) ListDeliveries(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Delivery, error) {
	rows, err := s.repo.List(ctx, filter, pagination.NormalizeLimit(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing deliveries")
	}
	return rows, nil
}
