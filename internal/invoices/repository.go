package invoices

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// Repository exposes persistence operations for invoices and payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	BindToOrder(ctx context.Context, invoiceID, orderID uuid.UUID, total decimal.Decimal) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InvoiceStatus) error
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	SumPayments(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, limit int) ([]models.Invoice, error)
}

type repository struct {
	repo.Base
}

// NewRepository constructs an invoice repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if invoice.Status == "" {
		invoice.Status = enums.InvoiceStatusUnpaid
	}
	if err := r.DB(ctx).Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.DB(ctx).
		Preload("Payments").
		Preload("Order").
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetForUpdate loads the invoice and its order under a row lock so that
// concurrent payments are serialized against the cumulative total.
func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	db := r.DB(ctx)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "invoices"}})
	}

	var invoice models.Invoice
	if err := db.Where("id = ?", id).First(&invoice).Error; err != nil {
		return nil, err
	}
	if invoice.OrderID != nil {
		var order models.Order
		if err := r.DB(ctx).Where("id = ?", *invoice.OrderID).First(&order).Error; err == nil {
			invoice.Order = &order
		}
	}
	return &invoice, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.DB(ctx).
		Preload("Payments").
		Where("order_id = ?", orderID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// BindToOrder attaches the invoice to an order. A zero issued total is
// backfilled from the order's computed total.
func (r *repository) BindToOrder(ctx context.Context, invoiceID, orderID uuid.UUID, total decimal.Decimal) error {
	updates := map[string]any{"order_id": orderID}
	var invoice models.Invoice
	if err := r.DB(ctx).Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
		return err
	}
	if invoice.TotalAmount.IsZero() {
		updates["total_amount"] = total
	}
	return r.DB(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(updates).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InvoiceStatus) error {
	return r.DB(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) SumPayments(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var raw *string
	err := r.DB(ctx).
		Model(&models.Payment{}).
		Select("SUM(amount)").
		Where("invoice_id = ?", invoiceID).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func (r *repository) List(ctx context.Context, limit int) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.DB(ctx).
		Preload("Payments").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
