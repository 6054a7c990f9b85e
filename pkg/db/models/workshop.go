package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// Workshop tracks one garment through production. Exactly one workshop is
// created per order item at checkout.
type Workshop struct {
	ID                  uuid.UUID            `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	Code                string               `gorm:"column:code;not null;uniqueIndex"`
	OrderID             uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID         uuid.UUID            `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex"`
	ProductID           uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	Status              enums.WorkshopStatus `gorm:"column:status;not null;default:on_request"`
	Type                *string              `gorm:"column:type"`
	TailorID            *uuid.UUID           `gorm:"column:tailor_id;type:uuid"`
	CutterID            *uuid.UUID           `gorm:"column:cutter_id;type:uuid"`
	Notes               *string              `gorm:"column:notes"`
	ScheduledDeliveryAt *time.Time           `gorm:"column:scheduled_delivery_at"`
	Order               *Order               `gorm:"foreignKey:OrderID"`
	OrderItem           *OrderItem           `gorm:"foreignKey:OrderItemID"`
	Product             *Product             `gorm:"foreignKey:ProductID"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// HasWorkers reports whether both a tailor and a cutter are assigned.
func (w *Workshop) HasWorkers() bool {
	return w.TailorID != nil && w.CutterID != nil
}
