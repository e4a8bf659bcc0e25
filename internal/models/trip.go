package models

import "time"

// Trip is a read-only reference record for per-month trip counts and
// averages in the yearly reports.
type Trip struct {
	ID        uint   `gorm:"primaryKey"`
	Label     string `gorm:"not null"`
	ClientID  uint   `gorm:"index"`
	StartDate time.Time
	TotalCost float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
