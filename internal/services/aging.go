package services

import (
	"time"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

// Bucket classifies an outstanding invoice by how overdue it is.
type Bucket string

const (
	BucketCurrent Bucket = "current"
	Bucket1To30   Bucket = "1_30"
	Bucket31To60  Bucket = "31_60"
	// Bucket90Plus keeps its legacy label but starts at day 61.
	Bucket90Plus Bucket = "90_plus"
)

// DaysPastDue returns whole days past the due date, negative when the
// invoice is not yet due. Both sides are truncated to dates first so the
// time-of-day component never shifts a boundary.
func DaysPastDue(inv *models.Invoice, today time.Time) int {
	d := clock.Date(today).Sub(clock.Date(inv.DueDate))
	return int(d.Hours() / 24)
}

// Classify returns the aging bucket for an invoice, or false when the
// invoice carries no outstanding balance. Boundaries belong to the
// less-overdue bucket: day 30 is still 1_30, day 60 still 31_60.
func Classify(inv *models.Invoice, today time.Time) (Bucket, bool) {
	if inv.BalanceDue == 0 {
		return "", false
	}
	days := DaysPastDue(inv, today)
	switch {
	case days <= 0:
		return BucketCurrent, true
	case days <= 30:
		return Bucket1To30, true
	case days <= 60:
		return Bucket31To60, true
	default:
		return Bucket90Plus, true
	}
}

// BucketTotal is the per-bucket slice of an aging summary.
type BucketTotal struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// AgingSummary groups outstanding invoices by bucket. GrandTotal always
// equals the sum of balance_due over every invoice with a non-zero balance.
type AgingSummary struct {
	Current    BucketTotal `json:"current"`
	Days1To30  BucketTotal `json:"days_1_30"`
	Days31To60 BucketTotal `json:"days_31_60"`
	Days90Plus BucketTotal `json:"days_90_plus"`
	GrandTotal float64     `json:"grand_total"`
	Count      int         `json:"count"`
}

// Summarize buckets every outstanding invoice as of today.
func Summarize(invoices []models.Invoice, today time.Time) AgingSummary {
	var sum AgingSummary
	for i := range invoices {
		bucket, ok := Classify(&invoices[i], today)
		if !ok {
			continue
		}
		due := invoices[i].BalanceDue
		switch bucket {
		case BucketCurrent:
			sum.Current.Total += due
			sum.Current.Count++
		case Bucket1To30:
			sum.Days1To30.Total += due
			sum.Days1To30.Count++
		case Bucket31To60:
			sum.Days31To60.Total += due
			sum.Days31To60.Count++
		case Bucket90Plus:
			sum.Days90Plus.Total += due
			sum.Days90Plus.Count++
		}
		sum.GrandTotal += due
		sum.Count++
	}
	return sum
}
