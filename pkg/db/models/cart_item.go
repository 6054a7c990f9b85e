package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one basket line. Lines merge (quantity increments) only when
// product, measurement and collection category all match exactly.
type CartItem struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	CartID             uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	MeasurementID      uuid.UUID `gorm:"column:measurement_id;type:uuid;not null"`
	Quantity           int       `gorm:"column:quantity;not null"`
	CollectionCategory *string   `gorm:"column:collection_category"`
	Product            *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
