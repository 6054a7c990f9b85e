package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// Invoice starts UNPAID and may be created before the order it bills.
// Checkout binds the first unbound invoice for the customer and backfills
// TotalAmount from the order items when it was issued as zero.
type Invoice struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	Code        string              `gorm:"column:code;not null;uniqueIndex"`
	CustomerID  *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	OrderID     *uuid.UUID          `gorm:"column:order_id;type:uuid;uniqueIndex"`
	Status      enums.InvoiceStatus `gorm:"column:status;not null;default:UNPAID"`
	TotalAmount decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	DueDate     *time.Time          `gorm:"column:due_date"`
	Notes       *string             `gorm:"column:notes"`
	Customer    *Customer           `gorm:"foreignKey:CustomerID"`
	Order       *Order              `gorm:"foreignKey:OrderID"`
	Payments    []Payment           `gorm:"foreignKey:InvoiceID"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
