package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer carries the running sales statistics updated on delivery
// confirmation alongside basic contact data.
type Customer struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	Code        string          `gorm:"column:code;not null"`
	Name        string          `gorm:"column:name;not null"`
	Address     *string         `gorm:"column:address"`
	Phone       *string         `gorm:"column:phone"`
	NumOfOrders int             `gorm:"column:num_of_orders;not null;default:0"`
	NumOfItems  int             `gorm:"column:num_of_items;not null;default:0"`
	Revenue     decimal.Decimal `gorm:"column:revenue;type:numeric(14,2);not null;default:0"`
	Outstanding decimal.Decimal `gorm:"column:outstanding;type:numeric(14,2);not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
