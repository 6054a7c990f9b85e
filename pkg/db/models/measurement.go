package models

import (
	"time"

	"github.com/google/uuid"
)

// Measurement is a customer's recorded fit profile. Its photos are copied
// onto order items at checkout so the snapshot survives later edits.
type Measurement struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	CustomerID uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index"`
	Name       string             `gorm:"column:name;not null"`
	Notes      *string            `gorm:"column:notes"`
	Images     []MeasurementImage `gorm:"foreignKey:MeasurementID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

type MeasurementImage struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	MeasurementID uuid.UUID `gorm:"column:measurement_id;type:uuid;not null;index"`
	URL           string    `gorm:"column:url;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
