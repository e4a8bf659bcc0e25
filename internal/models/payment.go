package models

import "time"

// Payment tied to invoices. Rows are immutable once created; retracting a
// payment deletes the row and re-derives the parent invoice balance.
type Payment struct {
	ID          uint      `gorm:"primaryKey"`
	InvoiceID   uint      `gorm:"not null;index"`
	Amount      float64   `gorm:"not null"`
	Currency    string    `gorm:"not null;default:'EUR'"`
	Method      string    `gorm:"not null"` // ex: transfer, card, cash, cheque
	PaymentDate time.Time `gorm:"not null"`
	Reference   string    // optional external reference (bank statement line, gateway id)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
