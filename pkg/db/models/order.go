package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// Order is the root of a fulfillment. Status transitions to completed only
// when every workshop is completed and every order delivery is delivered.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	Code          string              `gorm:"column:code;not null;uniqueIndex"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:pending"`
	Priority      enums.OrderPriority `gorm:"column:priority;not null;default:normal"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentType   enums.PaymentType   `gorm:"column:payment_type;not null"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	DueDate       *time.Time          `gorm:"column:due_date"`
	BankName      *string             `gorm:"column:bank_name"`
	AccountNumber *string             `gorm:"column:account_number"`
	Notes         *string             `gorm:"column:notes"`
	Customer      *Customer           `gorm:"foreignKey:CustomerID"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Workshops     []Workshop          `gorm:"foreignKey:OrderID"`
	Deliveries    []Delivery          `gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
