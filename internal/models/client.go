package models

import "time"

// Client is the billed party. Email is where payment reminders go.
type Client struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null"`
	Company   string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
