package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is an immutable snapshot of a cart line at checkout time.
// PriceEach is frozen from the product price so later catalog edits do not
// change what the customer owes.
type OrderItem struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	OrderID            uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	MeasurementID      uuid.UUID        `gorm:"column:measurement_id;type:uuid;not null"`
	Quantity           int              `gorm:"column:quantity;not null"`
	PriceEach          decimal.Decimal  `gorm:"column:price_each;type:numeric(12,2);not null"`
	CollectionCategory *string          `gorm:"column:collection_category"`
	Product            *Product         `gorm:"foreignKey:ProductID"`
	Images             []OrderItemImage `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
