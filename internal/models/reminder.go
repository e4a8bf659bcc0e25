package models

import "time"

// Reminder milestones relative to the invoice due date.
const (
	ReminderBeforeDue7  = "before_due_7"
	ReminderBeforeDue3  = "before_due_3"
	ReminderOnDue       = "on_due"
	ReminderOverdue7    = "overdue_7"
	ReminderOverdue14   = "overdue_14"
	ReminderOverdue30   = "overdue_30"
	ReminderManual      = "manual"
)

// Outcome statuses for ReminderRecord.
const (
	ReminderStatusSent   = "sent"
	ReminderStatusFailed = "failed"
)

// ReminderRecord is the append-only outcome log of reminder sends. Existing
// rows are never mutated.
type ReminderRecord struct {
	ID           uint   `gorm:"primaryKey"`
	InvoiceID    uint   `gorm:"not null;index"`
	ReminderType string `gorm:"not null"`
	SentAt       time.Time
	Recipient    string
	Status       string `gorm:"not null"` // sent, failed
	ErrorDetail  string
	CreatedAt    time.Time
}

// ReminderDispatch is the dedup claim for automatic reminders. The composite
// unique index makes "insert if not exists" atomic in the store, so an
// automatic milestone is sent at most once even under concurrent runs. A
// failed dispatch releases its claim; manual reminders never claim.
type ReminderDispatch struct {
	ID           uint   `gorm:"primaryKey"`
	InvoiceID    uint   `gorm:"not null;uniqueIndex:idx_dispatch_invoice_type"`
	ReminderType string `gorm:"not null;uniqueIndex:idx_dispatch_invoice_type"`
	CreatedAt    time.Time
}
