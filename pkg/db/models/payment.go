package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// Payment records money received against an invoice. Kind is derived from
// the billed order's payment plan, never taken from the caller.
type Payment struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	InvoiceID uuid.UUID         `gorm:"column:invoice_id;type:uuid;not null;index"`
	Amount    decimal.Decimal   `gorm:"column:amount;type:numeric(14,2);not null"`
	Kind      enums.PaymentKind `gorm:"column:kind;not null"`
	Note      *string           `gorm:"column:note"`
	ProofRef  *string           `gorm:"column:proof_ref"`
	PaidAt    time.Time         `gorm:"column:paid_at;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
