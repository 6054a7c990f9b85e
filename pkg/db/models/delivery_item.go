package models

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	DeliveryID  uuid.UUID  `gorm:"column:delivery_id;type:uuid;not null;index"`
	OrderItemID *uuid.UUID `gorm:"column:order_item_id;type:uuid"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	Quantity    int        `gorm:"column:quantity;not null"`
	Address     *string    `gorm:"column:address"`
	Product     *Product   `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
