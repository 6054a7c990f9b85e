package models

import (
	"time"

	"github.com/google/uuid"
)

// Stock holds the on-hand quantity of one product at one location.
// Rows are created lazily on the first adjustment; quantity never drops
// below zero.
type Stock struct {
	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Quantity   int       `gorm:"column:quantity;not null;default:0"`
	Location   *Location `gorm:"foreignKey:LocationID"`
	Product    *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
