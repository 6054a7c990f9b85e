package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the single working basket of one customer. It is destroyed,
// along with its items, when checkout converts it into an order.
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	CustomerID uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;uniqueIndex"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
