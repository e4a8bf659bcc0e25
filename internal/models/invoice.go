package models

import "time"

// Invoice lifecycle statuses. Status is derived from payments and explicit
// transitions (send, cancel); "overdue" only ever appears as a display
// projection, never persisted (see services.DisplayStatus).
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusViewed    = "viewed"
	InvoiceStatusPartial   = "partial"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Invoicing models
type Invoice struct {
	ID             uint    `gorm:"primaryKey"`
	ClientID       uint    `gorm:"not null;index"`
	Client         Client  `gorm:"foreignKey:ClientID"`
	Currency       string  `gorm:"not null;default:'EUR'"`
	TotalAmount    float64 `gorm:"not null"`
	AmountPaid     float64 `gorm:"not null;default:0"`
	BalanceDue     float64 `gorm:"not null;default:0"`
	Status         string  `gorm:"not null;default:'draft'"`
	IssueDate      time.Time
	DueDate        time.Time `gorm:"index"`
	ReminderPaused bool      `gorm:"not null;default:false"`
	SentAt         *time.Time
	PaidAt         *time.Time
	// Version guards concurrent payment application (optimistic lock).
	Version   int `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open reports whether the invoice can still receive payments or reminders.
func (i *Invoice) Open() bool {
	return i.Status != InvoiceStatusCancelled && i.BalanceDue > 0
}
