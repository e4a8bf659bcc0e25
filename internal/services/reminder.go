package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/logger"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/mail"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

// reminderOffsets maps each automatic reminder type to its trigger day
// relative to the invoice due date. Offsets are distinct, so at most one
// automatic type is due on any given day.
var reminderOffsets = map[string]int{
	models.ReminderBeforeDue7: -7,
	models.ReminderBeforeDue3: -3,
	models.ReminderOnDue:      0,
	models.ReminderOverdue7:   7,
	models.ReminderOverdue14:  14,
	models.ReminderOverdue30:  30,
}

// ComputeDue returns the automatic reminder type triggered today for the
// invoice, if any.
func ComputeDue(inv *models.Invoice, today time.Time) (string, bool) {
	days := DaysPastDue(inv, today)
	for rtype, offset := range reminderOffsets {
		if days == offset {
			return rtype, true
		}
	}
	return "", false
}

// Scheduler decides which reminders are due, sends them through the mail
// dispatcher, and records every outcome in the append-only reminder log.
type Scheduler struct {
	DB     *gorm.DB
	Mailer mail.Dispatcher
	Clk    clock.Clock
	log    zerolog.Logger
}

func NewScheduler(db *gorm.DB, mailer mail.Dispatcher, clk clock.Clock) *Scheduler {
	return &Scheduler{DB: db, Mailer: mailer, Clk: clk, log: logger.WithComponent("reminder")}
}

// IsEligible reports whether a reminder of the given type may be sent for
// the invoice, with a short reason when not. Automatic types respect the
// pause flag and the once-per-milestone rule; manual bypasses both.
func (s *Scheduler) IsEligible(inv *models.Invoice, rtype string) (bool, string) {
	if inv.Status == models.InvoiceStatusCancelled {
		return false, "invoice cancelled"
	}
	if inv.BalanceDue == 0 {
		return false, "no outstanding balance"
	}
	if rtype == models.ReminderManual {
		return true, ""
	}
	if inv.ReminderPaused {
		return false, "reminders paused"
	}
	var count int64
	if err := s.DB.Model(&models.ReminderRecord{}).
		Where("invoice_id = ? AND reminder_type = ? AND status = ?",
			inv.ID, rtype, models.ReminderStatusSent).
		Count(&count).Error; err != nil {
		return false, "eligibility check failed"
	}
	if count > 0 {
		return false, "already sent"
	}
	return true, ""
}

// ReminderCandidate is one (invoice, due-type) pair ready to send.
type ReminderCandidate struct {
	InvoiceID    uint      `json:"invoice_id"`
	ClientName   string    `json:"client_name"`
	Recipient    string    `json:"recipient"`
	ReminderType string    `json:"reminder_type"`
	DueDate      time.Time `json:"due_date"`
	BalanceDue   float64   `json:"balance_due"`
}

// PendingReminders lists every open invoice whose automatic reminder is due
// today and has not been sent or paused.
func (s *Scheduler) PendingReminders() ([]ReminderCandidate, error) {
	today := s.Clk.Today()
	invoices, err := s.openInvoices(true)
	if err != nil {
		return nil, err
	}
	out := []ReminderCandidate{}
	for i := range invoices {
		inv := &invoices[i]
		rtype, due := ComputeDue(inv, today)
		if !due {
			continue
		}
		if ok, _ := s.IsEligible(inv, rtype); !ok {
			continue
		}
		out = append(out, ReminderCandidate{
			InvoiceID:    inv.ID,
			ClientName:   inv.Client.Name,
			Recipient:    inv.Client.Email,
			ReminderType: rtype,
			DueDate:      inv.DueDate,
			BalanceDue:   inv.BalanceDue,
		})
	}
	return out, nil
}

// SendResult is the outcome of a single reminder attempt.
type SendResult struct {
	InvoiceID    uint   `json:"invoice_id"`
	ReminderType string `json:"reminder_type"`
	Status       string `json:"status"` // sent, failed, skipped
	Error        string `json:"error,omitempty"`
}

// SendReminder sends one reminder. An empty type means the automatic type
// computed for today; the only accepted explicit type is "manual", which may
// be issued at any time and is never deduplicated. Automatic milestones
// cannot be requested by name, so a caller can never claim one on a day it
// does not trigger.
func (s *Scheduler) SendReminder(invoiceID uint, rtype string) (*SendResult, error) {
	if rtype != "" && rtype != models.ReminderManual {
		return nil, validationErr("reminder_type", "only manual reminders can be requested explicitly")
	}

	var inv models.Invoice
	if err := s.DB.Preload("Client").First(&inv, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	today := s.Clk.Today()
	if rtype == "" {
		computed, due := ComputeDue(&inv, today)
		if !due {
			return nil, validationErr("reminder_type", "no automatic reminder due today")
		}
		rtype = computed
	}

	if ok, reason := s.IsEligible(&inv, rtype); !ok {
		return &SendResult{InvoiceID: inv.ID, ReminderType: rtype, Status: "skipped", Error: reason}, nil
	}
	return s.dispatch(&inv, rtype, today), nil
}

// dispatch claims the milestone (for automatic types), sends, and records
// the outcome. The claim insert is atomic in the store, so a concurrent run
// that got there first makes this one a no-op skip.
func (s *Scheduler) dispatch(inv *models.Invoice, rtype string, today time.Time) *SendResult {
	automatic := rtype != models.ReminderManual
	if automatic {
		claim := models.ReminderDispatch{InvoiceID: inv.ID, ReminderType: rtype}
		res := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&claim)
		if res.Error != nil {
			return &SendResult{InvoiceID: inv.ID, ReminderType: rtype, Status: "failed", Error: res.Error.Error()}
		}
		if res.RowsAffected == 0 {
			return &SendResult{InvoiceID: inv.ID, ReminderType: rtype, Status: "skipped", Error: "already sent"}
		}
	}

	subject, body := composeReminder(inv, rtype, today)
	recipient := inv.Client.Email
	sendErr := s.Mailer.Send(recipient, subject, body)

	record := models.ReminderRecord{
		InvoiceID:    inv.ID,
		ReminderType: rtype,
		SentAt:       today,
		Recipient:    recipient,
		Status:       models.ReminderStatusSent,
	}
	if sendErr != nil {
		record.Status = models.ReminderStatusFailed
		record.ErrorDetail = sendErr.Error()
		if automatic {
			// release the claim so a later run can retry the milestone
			s.DB.Where("invoice_id = ? AND reminder_type = ?", inv.ID, rtype).
				Delete(&models.ReminderDispatch{})
		}
	}
	// The outcome is always recorded, success or failure.
	if err := s.DB.Create(&record).Error; err != nil {
		s.log.Error().Err(err).Uint("invoice_id", inv.ID).Str("type", rtype).
			Msg("failed to record reminder outcome")
	}

	if sendErr != nil {
		derr := &DispatchError{Recipient: recipient, Err: sendErr}
		s.log.Warn().Err(derr).Uint("invoice_id", inv.ID).Str("type", rtype).Msg("reminder failed")
		return &SendResult{InvoiceID: inv.ID, ReminderType: rtype, Status: "failed", Error: derr.Error()}
	}
	s.log.Info().Uint("invoice_id", inv.ID).Str("type", rtype).Str("to", recipient).Msg("reminder sent")
	return &SendResult{InvoiceID: inv.ID, ReminderType: rtype, Status: "sent"}
}

// BatchResult aggregates a batch run. Individual failures are collected,
// never raised: one broken invoice must not halt the run.
type BatchResult struct {
	RunID   string       `json:"run_id"`
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped"`
	Details []SendResult `json:"details"`
}

// SendAll runs the automatic reminder pass over every open invoice. With
// activeOnly set, draft invoices are left alone.
func (s *Scheduler) SendAll(activeOnly bool) (*BatchResult, error) {
	invoices, err := s.openInvoices(activeOnly)
	if err != nil {
		return nil, err
	}
	return s.runBatch(invoices), nil
}

// SendSelected runs the automatic reminder pass over the given invoices.
func (s *Scheduler) SendSelected(ids []uint) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, validationErr("ids", "no invoices selected")
	}
	var invoices []models.Invoice
	if err := s.DB.Preload("Client").Where("id IN ?", ids).Find(&invoices).Error; err != nil {
		return nil, err
	}
	return s.runBatch(invoices), nil
}

func (s *Scheduler) runBatch(invoices []models.Invoice) *BatchResult {
	today := s.Clk.Today()
	batch := &BatchResult{RunID: uuid.New().String(), Details: []SendResult{}}
	log := s.log.With().Str("run_id", batch.RunID).Logger()

	for i := range invoices {
		inv := &invoices[i]
		rtype, due := ComputeDue(inv, today)
		if !due {
			continue
		}
		if ok, reason := s.IsEligible(inv, rtype); !ok {
			batch.Skipped++
			batch.Details = append(batch.Details, SendResult{
				InvoiceID: inv.ID, ReminderType: rtype, Status: "skipped", Error: reason,
			})
			continue
		}
		res := s.dispatch(inv, rtype, today)
		switch res.Status {
		case "sent":
			batch.Sent++
		case "failed":
			batch.Failed++
		default:
			batch.Skipped++
		}
		batch.Details = append(batch.Details, *res)
	}

	log.Info().Int("sent", batch.Sent).Int("failed", batch.Failed).
		Int("skipped", batch.Skipped).Msg("reminder batch completed")
	return batch
}

// TogglePause flips the invoice's reminder pause flag. Recorded history is
// untouched.
func (s *Scheduler) TogglePause(invoiceID uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.DB.First(&inv, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	inv.ReminderPaused = !inv.ReminderPaused
	if err := s.DB.Save(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// History returns the append-only reminder log for an invoice, newest first.
func (s *Scheduler) History(invoiceID uint) ([]models.ReminderRecord, error) {
	var records []models.ReminderRecord
	err := s.DB.Where("invoice_id = ?", invoiceID).Order("id desc").Find(&records).Error
	return records, err
}

func (s *Scheduler) openInvoices(activeOnly bool) ([]models.Invoice, error) {
	q := s.DB.Preload("Client").
		Where("balance_due > 0 AND status <> ?", models.InvoiceStatusCancelled)
	if activeOnly {
		q = q.Where("status <> ?", models.InvoiceStatusDraft)
	}
	var invoices []models.Invoice
	err := q.Find(&invoices).Error
	return invoices, err
}

func composeReminder(inv *models.Invoice, rtype string, today time.Time) (subject, body string) {
	due := inv.DueDate.Format("2 Jan 2006")
	amount := fmt.Sprintf("%.2f %s", inv.BalanceDue, inv.Currency)
	switch rtype {
	case models.ReminderBeforeDue7, models.ReminderBeforeDue3:
		subject = fmt.Sprintf("Invoice #%d due on %s", inv.ID, due)
		body = fmt.Sprintf("Dear %s,\n\nA friendly note that invoice #%d for %s falls due on %s.\n\nThank you,\nAccounts",
			inv.Client.Name, inv.ID, amount, due)
	case models.ReminderOnDue:
		subject = fmt.Sprintf("Invoice #%d is due today", inv.ID)
		body = fmt.Sprintf("Dear %s,\n\nInvoice #%d for %s is due today, %s.\n\nThank you,\nAccounts",
			inv.Client.Name, inv.ID, amount, due)
	case models.ReminderManual:
		subject = fmt.Sprintf("Payment reminder for invoice #%d", inv.ID)
		body = fmt.Sprintf("Dear %s,\n\nThis is a reminder that invoice #%d has an outstanding balance of %s.\n\nThank you,\nAccounts",
			inv.Client.Name, inv.ID, amount)
	default:
		days := DaysPastDue(inv, today)
		subject = fmt.Sprintf("Invoice #%d is %d days overdue", inv.ID, days)
		body = fmt.Sprintf("Dear %s,\n\nInvoice #%d for %s was due on %s and remains unpaid.\nPlease arrange payment at your earliest convenience.\n\nThank you,\nAccounts",
			inv.Client.Name, inv.ID, amount, due)
	}
	return subject, body
}
