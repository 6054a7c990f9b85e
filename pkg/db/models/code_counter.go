package models

import "time"

// CodeCounter holds the last issued sequence number per code family.
// Rows are read under a row lock so concurrent issuers never collide.
type CodeCounter struct {
	Name      string    `gorm:"column:name;primaryKey"`
	Value     int64     `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CodeCounter) TableName() string { return "code_counters" }
