package models

import "time"

// Expense statuses. Anything that is neither paid nor rejected counts as a
// pending payable in cash-flow views.
const (
	ExpenseStatusPending  = "pending"
	ExpenseStatusPaid     = "paid"
	ExpenseStatusRejected = "rejected"
)

// Expense is a supplier-side cost. Category is free-form; the configured
// commission-bearing and tax-deductible sets give certain tags extra effects.
type Expense struct {
	ID           uint    `gorm:"primaryKey"`
	Category     string  `gorm:"not null;index"`
	Amount       float64 `gorm:"not null"`
	Status       string  `gorm:"not null;default:'pending'"`
	ExpenseDate  time.Time
	SupplierName string
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
