package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

// LedgerService owns invoice balances and lifecycle status. Balances are
// only ever derived from the payment set; concurrent writers against the
// same invoice are serialized by an optimistic version check with a single
// retry on conflict.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService { return &LedgerService{DB: db} }

// PaymentInput carries the fields of a payment to apply.
type PaymentInput struct {
	Amount      float64
	Currency    string
	Method      string
	PaymentDate time.Time
	Reference   string
}

// ApplyPayment records a payment against an invoice and re-derives
// amount_paid, balance_due, and status. Rejects zero/negative amounts and
// amounts above the current balance before touching anything.
func (s *LedgerService) ApplyPayment(invoiceID uint, in PaymentInput) (*models.Invoice, *models.Payment, error) {
	if in.Amount <= 0 {
		return nil, nil, validationErr("amount", "must be greater than zero")
	}
	inv, pay, err := s.applyOnce(invoiceID, in)
	if errors.Is(err, ErrConcurrencyConflict) {
		// one retry with a fresh read, then surface the conflict
		inv, pay, err = s.applyOnce(invoiceID, in)
	}
	return inv, pay, err
}

func (s *LedgerService) applyOnce(invoiceID uint, in PaymentInput) (*models.Invoice, *models.Payment, error) {
	var inv models.Invoice
	if err := s.DB.First(&inv, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvoiceNotFound
		}
		return nil, nil, err
	}
	if inv.Status == models.InvoiceStatusCancelled {
		return nil, nil, validationErr("invoice", "is cancelled")
	}
	if in.Amount > inv.BalanceDue {
		return nil, nil, validationErr("amount", "exceeds balance due")
	}

	currency := in.Currency
	if currency == "" {
		currency = inv.Currency
	}
	when := in.PaymentDate
	if when.IsZero() {
		when = clock.Date(time.Now().UTC())
	}

	pay := models.Payment{
		InvoiceID:   inv.ID,
		Amount:      in.Amount,
		Currency:    currency,
		Method:      in.Method,
		PaymentDate: when,
		Reference:   in.Reference,
	}

	amountPaid := inv.AmountPaid + in.Amount
	balance := inv.TotalAmount - amountPaid
	if balance < 0 {
		balance = 0
	}
	status := inv.Status
	var paidAt *time.Time
	switch {
	case balance == 0:
		status = models.InvoiceStatusPaid
		paidAt = &when
	case amountPaid > 0 && amountPaid < inv.TotalAmount:
		status = models.InvoiceStatusPartial
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&pay).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{
			"amount_paid": amountPaid,
			"balance_due": balance,
			"status":      status,
			"version":     inv.Version + 1,
		}
		if paidAt != nil {
			updates["paid_at"] = paidAt
		}
		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND version = ?", inv.ID, inv.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrencyConflict
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	inv.AmountPaid = amountPaid
	inv.BalanceDue = balance
	inv.Status = status
	if paidAt != nil {
		inv.PaidAt = paidAt
	}
	inv.Version++
	return &inv, &pay, nil
}

// RetractPayment deletes a payment and re-derives the parent invoice from
// the remaining payment set rather than by simple subtraction, so the
// result stays correct under concurrent edits.
func (s *LedgerService) RetractPayment(paymentID uint) (*models.Invoice, error) {
	inv, err := s.retractOnce(paymentID)
	if errors.Is(err, ErrConcurrencyConflict) {
		inv, err = s.retractOnce(paymentID)
	}
	return inv, err
}

func (s *LedgerService) retractOnce(paymentID uint) (*models.Invoice, error) {
	var pay models.Payment
	if err := s.DB.First(&pay, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	var inv models.Invoice
	if err := s.DB.First(&inv, pay.InvoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	var remaining float64
	if err := s.DB.Model(&models.Payment{}).
		Where("invoice_id = ? AND id <> ?", inv.ID, pay.ID).
		Select("COALESCE(SUM(amount), 0)").Scan(&remaining).Error; err != nil {
		return nil, err
	}

	balance := inv.TotalAmount - remaining
	if balance < 0 {
		balance = 0
	}
	status := derivedStatus(&inv, remaining, balance)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Payment{}, pay.ID).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{
			"amount_paid": remaining,
			"balance_due": balance,
			"status":      status,
			"version":     inv.Version + 1,
		}
		if balance > 0 {
			updates["paid_at"] = nil
		}
		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND version = ?", inv.ID, inv.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrencyConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.AmountPaid = remaining
	inv.BalanceDue = balance
	inv.Status = status
	if balance > 0 {
		inv.PaidAt = nil
	}
	inv.Version++
	return &inv, nil
}

// derivedStatus recomputes the lifecycle status from a payment total. The
// pre-payment lifecycle (draft/sent/viewed) is restored from SentAt when the
// payment-driven statuses no longer apply; a cancelled invoice stays
// cancelled.
func derivedStatus(inv *models.Invoice, amountPaid, balance float64) string {
	if inv.Status == models.InvoiceStatusCancelled {
		return models.InvoiceStatusCancelled
	}
	switch {
	case balance == 0 && inv.TotalAmount > 0:
		return models.InvoiceStatusPaid
	case amountPaid > 0:
		return models.InvoiceStatusPartial
	}
	if inv.Status == models.InvoiceStatusPartial || inv.Status == models.InvoiceStatusPaid {
		if inv.SentAt != nil {
			return models.InvoiceStatusSent
		}
		return models.InvoiceStatusDraft
	}
	return inv.Status
}

// DisplayStatus is the read-side projection of an invoice status: a paid or
// cancelled invoice keeps its persisted status, anything else past due with
// an open balance shows as overdue. The stored status is never overwritten,
// so lifecycle history survives.
func DisplayStatus(inv *models.Invoice, today time.Time) string {
	if inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusCancelled {
		return inv.Status
	}
	if inv.BalanceDue > 0 && clock.Date(inv.DueDate).Before(clock.Date(today)) {
		return models.InvoiceStatusOverdue
	}
	return inv.Status
}

// MarkSent moves a draft invoice to sent and stamps SentAt.
func (s *LedgerService) MarkSent(invoiceID uint) (*models.Invoice, error) {
	return s.transition(invoiceID, func(inv *models.Invoice) error {
		if inv.Status != models.InvoiceStatusDraft {
			return validationErr("status", "only draft invoices can be sent")
		}
		now := clock.Date(time.Now().UTC())
		inv.Status = models.InvoiceStatusSent
		inv.SentAt = &now
		return nil
	})
}

// MarkViewed records that the client opened the invoice.
func (s *LedgerService) MarkViewed(invoiceID uint) (*models.Invoice, error) {
	return s.transition(invoiceID, func(inv *models.Invoice) error {
		if inv.Status != models.InvoiceStatusSent {
			return validationErr("status", "only sent invoices can be marked viewed")
		}
		inv.Status = models.InvoiceStatusViewed
		return nil
	})
}

// Cancel voids an unpaid invoice.
func (s *LedgerService) Cancel(invoiceID uint) (*models.Invoice, error) {
	return s.transition(invoiceID, func(inv *models.Invoice) error {
		if inv.Status == models.InvoiceStatusPaid {
			return validationErr("status", "paid invoices cannot be cancelled")
		}
		inv.Status = models.InvoiceStatusCancelled
		return nil
	})
}

func (s *LedgerService) transition(invoiceID uint, mutate func(*models.Invoice) error) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.DB.First(&inv, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if err := mutate(&inv); err != nil {
		return nil, err
	}
	if err := s.DB.Save(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}
