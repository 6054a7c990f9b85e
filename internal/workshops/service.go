package workshops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
	"github.com/atelierhq/atelier-backend/pkg/sequence"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sourceFinder interface {
	FindSource(ctx context.Context, productID uuid.UUID, needed int) (*models.Stock, error)
}

type deliveryWriter interface {
	CreateScheduled(ctx context.Context, tx *gorm.DB, delivery *models.Delivery) (*models.Delivery, error)
}

type invoiceFinder interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
}

// Service is the workshop state machine.
type Service interface {
	AssignWorkers(ctx context.Context, workshopID uuid.UUID, tailorID, cutterID *uuid.UUID) (*models.Workshop, error)
	UpdateStatus(ctx context.Context, workshopID uuid.UUID, status enums.WorkshopStatus) (*models.Workshop, error)
	ScheduleDelivery(ctx context.Context, input ScheduleInput) (*models.Delivery, error)
	ListWorkshops(ctx context.Context, status *enums.WorkshopStatus, params pagination.Params) ([]models.Workshop, error)
}

// ScheduleInput dispatches a finished garment to its customer. Address
// overrides the customer's stored address for this shipment only.
type ScheduleInput struct {
	WorkshopID  uuid.UUID
	CourierID   *uuid.UUID
	ScheduledAt *time.Time
	Address     *string
	IsPriority  bool
	Notes       *string
}

type service struct {
	tx         txRunner
	repo       Repository
	stocks     sourceFinder
	deliveries deliveryWriter
	invoices   invoiceFinder
}

// NewService builds the workshop service.
func NewService(
	tx txRunner,
	repository Repository,
	stocks sourceFinder,
	deliveries deliveryWriter,
	invoices invoiceFinder,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repository == nil {
		return nil, fmt.Errorf("workshop repository required")
	}
	if stocks == nil {
		return nil, fmt.Errorf("stock finder required")
	}
	if deliveries == nil {
		return nil, fmt.Errorf("delivery writer required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice finder required")
	}
	return &service{
		tx:         tx,
		repo:       repository,
		stocks:     stocks,
		deliveries: deliveries,
		invoices:   invoices,
	}, nil
}

// AssignWorkers records the supplied workers on the job. Each role is
// optional and last-write-wins; the job is forced READY regardless of its
// current state, so re-assignment is idempotent.
func (s *service) AssignWorkers(ctx context.Context, workshopID uuid.UUID, tailorID, cutterID *uuid.UUID) (*models.Workshop, error) {
	if workshopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workshop id required")
	}

	var result *models.Workshop
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)

		if _, err := s.load(ctx, repository, workshopID); err != nil {
			return err
		}

		updates := map[string]any{
			"status": enums.WorkshopStatusReady,
		}
		if tailorID != nil && *tailorID != uuid.Nil {
			updates["tailor_id"] = *tailorID
		}
		if cutterID != nil && *cutterID != uuid.Nil {
			updates["cutter_id"] = *cutterID
		}
		if err := repository.Update(ctx, workshopID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assigning workers")
		}

		var err error
		result, err = s.load(ctx, repository, workshopID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus moves a job through the state machine. Entering on_process
// on a non-cash order requires the order's invoice to be fully settled.
func (s *service) UpdateStatus(ctx context.Context, workshopID uuid.UUID, status enums.WorkshopStatus) (*models.Workshop, error) {
	if workshopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workshop id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid workshop status")
	}

	var result *models.Workshop
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)

		workshop, err := s.load(ctx, repository, workshopID)
		if err != nil {
			return err
		}

		if status == enums.WorkshopStatusOnProcess {
			if err := s.checkPaymentGate(ctx, workshop); err != nil {
				return err
			}
		}

		if err := repository.Update(ctx, workshopID, map[string]any{"status": status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating workshop status")
		}

		result, err = s.load(ctx, repository, workshopID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ScheduleDelivery dispatches the finished garment. It requires both
// workers, picks the best-stocked source location, and completes the job.
// Stock is only inspected here; the debit happens at confirmation.
func (s *service) ScheduleDelivery(ctx context.Context, input ScheduleInput) (*models.Delivery, error) {
	if input.WorkshopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workshop id required")
	}

	var result *models.Delivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)

		workshop, err := s.load(ctx, repository, input.WorkshopID)
		if err != nil {
			return err
		}
		if !workshop.HasWorkers() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "workshop requires an assigned tailor and cutter")
		}
		if workshop.Order == nil || workshop.OrderItem == nil {
			return pkgerrors.New(pkgerrors.CodeDependency, "workshop order graph incomplete")
		}

		needed := workshop.OrderItem.Quantity
		source, err := s.stocks.FindSource(ctx, workshop.ProductID, needed)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no location holds enough stock").
					WithDetails(map[string]any{"product_id": workshop.ProductID, "needed": needed})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "searching source location")
		}

		code, err := sequence.Next(tx, sequence.FamilyDelivery)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issuing delivery code")
		}

		delivery := &models.Delivery{
			Code:                  code,
			Type:                  enums.DeliveryTypeOrder,
			Status:                enums.DeliveryStatusScheduled,
			OrderID:               &workshop.OrderID,
			WorkshopID:            &workshop.ID,
			SourceLocationID:      source.LocationID,
			DestinationKind:       enums.DestinationCustomer,
			DestinationCustomerID: &workshop.Order.CustomerID,
			CourierID:             input.CourierID,
			ScheduledAt:           input.ScheduledAt,
			IsPriority:            input.IsPriority,
			Notes:                 input.Notes,
			Items: []models.DeliveryItem{{
				OrderItemID: &workshop.OrderItemID,
				ProductID:   workshop.ProductID,
				Quantity:    needed,
				Address:     shipmentAddress(input.Address, workshop.Order),
			}},
		}
		result, err = s.deliveries.CreateScheduled(ctx, tx, delivery)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating delivery")
		}

		updates := map[string]any{"status": enums.WorkshopStatusCompleted}
		if input.ScheduledAt != nil {
			updates["scheduled_delivery_at"] = *input.ScheduledAt
		}
		if err := repository.Update(ctx, workshop.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "completing workshop")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListWorkshops(ctx context.Context, status *enums.WorkshopStatus, params pagination.Params) ([]models.Workshop, error) {
	rows, err := s.repo.List(ctx, status, pagination.NormalizeLimit(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing workshops")
	}
	return rows, nil
}

func (s *service) load(ctx context.Context, repository Repository, id uuid.UUID) (*models.Workshop, error) {
	workshop, err := repository.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workshop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading workshop")
	}
	return workshop, nil
}

// checkPaymentGate blocks production until the order has an invoice. On
// non-cash orders the invoice must also be fully settled; cash orders
// settle at the counter and skip only the paid check.
func (s *service) checkPaymentGate(ctx context.Context, workshop *models.Workshop) error {
	if workshop.Order == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "workshop order graph incomplete")
	}

	invoice, err := s.invoices.FindByOrder(ctx, workshop.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no invoice")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order invoice")
	}

	if workshop.Order.PaymentMethod == enums.PaymentMethodCash {
		return nil
	}
	if invoice.Status != enums.InvoiceStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is not fully paid").
			WithDetails(map[string]any{"invoice_status": invoice.Status})
	}
	return nil
}

// shipmentAddress prefers the per-shipment override, then the customer's
// stored address.
func shipmentAddress(override *string, order *models.Order) *string {
	if override != nil && *override != "" {
		return override
	}
	if order.Customer == nil {
		return nil
	}
	return order.Customer.Address
}
