package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

// Service reconciles invoices against recorded payments.
type Service interface {
	CreateInvoice(ctx context.Context, input CreateInput) (*models.Invoice, error)
	RecordPayment(ctx context.Context, input PaymentInput) (*models.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, params pagination.Params) ([]models.Invoice, error)
}

// CreateInput issues a new UNPAID invoice, bound to an order or floating
// against a customer until checkout binds it.
type CreateInput struct {
	CustomerID  *uuid.UUID
	OrderID     *uuid.UUID
	TotalAmount decimal.Decimal
	DueDate     *time.Time
	Notes       *string
}

// PaymentInput records money received against an invoice.
type PaymentInput struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Note      *string
	ProofRef  *string
}

type service struct {
	tx      txRunner
	repo    Repository
	metrics *metrics.FulfillmentMetrics
}

// NewService builds the invoice service.
func NewService(tx txRunner, repository Repository, m *metrics.FulfillmentMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repository == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	return &service{tx: tx, repo: repository, metrics: m}, nil
}

func (s *service) CreateInvoice(ctx context.Context, input CreateInput) (*models.Invoice, error) {
	if input.CustomerID == nil && input.OrderID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id or order id required")
	}
	if input.TotalAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must not be negative")
	}

	var result *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)

		code, err := sequence.Next(tx, sequence.FamilyInvoice)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issuing invoice code")
		}

		invoice := &models.Invoice{
			Code:        code,
			CustomerID:  input.CustomerID,
			OrderID:     input.OrderID,
			Status:      enums.InvoiceStatusUnpaid,
			TotalAmount: input.TotalAmount,
			DueDate:     input.DueDate,
			Notes:       input.Notes,
		}
		result, err = repository.Create(ctx, invoice)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordPayment appends a payment and rolls the invoice status forward.
// A payment pushing the cumulative total past the invoice total is
// rejected outright; nothing about the attempt is persisted.
func (s *service) RecordPayment(ctx context.Context, input PaymentInput) (*models.Invoice, error) {
	if input.InvoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var result *models.Invoice
	var finalStatus enums.InvoiceStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)

		invoice, err := repository.GetForUpdate(ctx, input.InvoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading invoice")
		}

		paid, err := repository.SumPayments(ctx, invoice.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing payments")
		}

		cumulative := paid.Add(input.Amount)
		if cumulative.GreaterThan(invoice.TotalAmount) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment exceeds invoice total").
				WithDetails(map[string]any{
					"invoice_total": invoice.TotalAmount.String(),
					"already_paid":  paid.String(),
					"attempted":     input.Amount.String(),
				})
		}

		payment := &models.Payment{
			InvoiceID: invoice.ID,
			Amount:    input.Amount,
			Kind:      paymentKind(invoice),
			Note:      input.Note,
			ProofRef:  input.ProofRef,
			PaidAt:    time.Now().UTC(),
		}
		if _, err := repository.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment")
		}

		status := enums.InvoiceStatusPartial
		if cumulative.Equal(invoice.TotalAmount) {
			status = enums.InvoiceStatusPaid
		}
		if err := repository.UpdateStatus(ctx, invoice.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating invoice status")
		}
		finalStatus = status

		result, err = repository.FindByID(ctx, invoice.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPayment(string(finalStatus))
	return result, nil
}

func (s *service) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading invoice")
	}
	return invoice, nil
}

func (s *service) ListInvoices(ctx context.Context, params pagination.Params) ([]models.Invoice, error) {
	rows, err := s.repo.List(ctx, pagination.NormalizeLimit(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing invoices")
	}
	return rows, nil
}

// paymentKind follows the billed order's settlement plan; floating invoices
// default to PARTIAL.
func paymentKind(invoice *models.Invoice) enums.PaymentKind {
	if invoice.Order != nil {
		return enums.KindForPayment(invoice.Order.PaymentType)
	}
	return enums.PaymentKindPartial
}
