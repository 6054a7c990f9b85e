package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

// Delivery moves goods out of a source location. Order deliveries terminate
// at a customer; internal transfers terminate at another location. Exactly
// one destination column is set, matching DestinationKind.
type Delivery struct {
	ID                    uuid.UUID             `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	Code                  string                `gorm:"column:code;not null;uniqueIndex"`
	Type                  enums.DeliveryType    `gorm:"column:type;not null"`
	Status                enums.DeliveryStatus  `gorm:"column:status;not null;default:pending"`
	OrderID               *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	WorkshopID            *uuid.UUID            `gorm:"column:workshop_id;type:uuid"`
	SourceLocationID      uuid.UUID             `gorm:"column:source_location_id;type:uuid;not null"`
	DestinationKind       enums.DestinationKind `gorm:"column:destination_kind;not null"`
	DestinationCustomerID *uuid.UUID            `gorm:"column:destination_customer_id;type:uuid"`
	DestinationLocationID *uuid.UUID            `gorm:"column:destination_location_id;type:uuid"`
	CourierID             *uuid.UUID            `gorm:"column:courier_id;type:uuid"`
	ScheduledAt           *time.Time            `gorm:"column:scheduled_at"`
	IsPriority            bool                  `gorm:"column:is_priority;not null;default:false"`
	ProofRef              *string               `gorm:"column:proof_ref"`
	DeliveredAt           *time.Time            `gorm:"column:delivered_at"`
	Notes                 *string               `gorm:"column:notes"`
	Order                 *Order                `gorm:"foreignKey:OrderID"`
	Workshop              *Workshop             `gorm:"foreignKey:WorkshopID"`
	SourceLocation        *Location             `gorm:"foreignKey:SourceLocationID"`
	Items                 []DeliveryItem        `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// Destination resolves the typed destination from the kind column and
// whichever id column is populated.
func (d *Delivery) Destination() types.Destination {
	if d.DestinationKind == enums.DestinationCustomer && d.DestinationCustomerID != nil {
		return types.CustomerDestination(*d.DestinationCustomerID)
	}
	if d.DestinationKind == enums.DestinationLocation && d.DestinationLocationID != nil {
		return types.LocationDestination(*d.DestinationLocationID)
	}
	return types.Destination{}
}
