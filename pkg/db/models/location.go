package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a physical site (warehouse, shop floor, office) that holds
// stock.
type Location struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	Code      string    `gorm:"column:code;not null"`
	Name      string    `gorm:"column:name;not null"`
	Address   *string   `gorm:"column:address"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
