package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItemImage stores one measurement photo URL copied from the cart line
// at checkout.
type OrderItemImage struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;not null;index"`
	URL         string    `gorm:"column:url;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
