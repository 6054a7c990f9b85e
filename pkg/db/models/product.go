package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item. Quantity is the aggregate stock held across
// every location; it only decreases when stock leaves the system to a
// customer.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	Code      string          `gorm:"column:code;not null"`
	Name      string          `gorm:"column:name;not null"`
	Type      string          `gorm:"column:type"`
	Fabric    *string         `gorm:"column:fabric"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null;default:0"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
