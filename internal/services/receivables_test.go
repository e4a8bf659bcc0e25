package services

import (
	"testing"
	"time"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

func TestReceivablesSummaryGroupsByClientAndBucket(t *testing.T) {
	conn := setupTestDB(t)
	today := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	seedInvoice(t, conn, 100, today.AddDate(0, 0, 10), models.InvoiceStatusSent)  // current
	seedInvoice(t, conn, 200, today.AddDate(0, 0, -5), models.InvoiceStatusSent)  // 1_30
	seedInvoice(t, conn, 300, today.AddDate(0, 0, -45), models.InvoiceStatusSent) // 31_60
	seedInvoice(t, conn, 400, today.AddDate(0, 0, -70), models.InvoiceStatusSent) // 90_plus
	cancelled := seedInvoice(t, conn, 999, today.AddDate(0, 0, -70), models.InvoiceStatusSent)
	if err := conn.Model(&models.Invoice{}).Where("id = ?", cancelled.ID).
		Update("status", models.InvoiceStatusCancelled).Error; err != nil {
		t.Fatalf("cancel invoice: %v", err)
	}

	svc := NewReceivablesService(conn, clock.Fixed(today))
	sum, err := svc.GetReceivablesSummary(time.Time{}, "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if len(sum.Invoices) != 4 {
		t.Fatalf("invoice rows = %d, want 4 (cancelled excluded)", len(sum.Invoices))
	}
	if len(sum.Clients) != 1 {
		t.Fatalf("client rows = %d, want 1", len(sum.Clients))
	}
	row := sum.Clients[0]
	if row.Outstanding != 1000 || row.Count != 4 {
		t.Fatalf("client row = %+v, want outstanding 1000 over 4 invoices", row)
	}
	if row.Current != 100 || row.Days1To30 != 200 || row.Days31To60 != 300 || row.Days90Plus != 400 {
		t.Fatalf("per-bucket split = %+v", row)
	}
	if sum.Summary.GrandTotal != 1000 {
		t.Fatalf("grand total = %v, want 1000", sum.Summary.GrandTotal)
	}
	if !sum.AsOf.Equal(today) {
		t.Fatalf("as_of = %v, want %v", sum.AsOf, today)
	}
}

func TestReceivablesBucketFilterNarrowsRowsNotTotals(t *testing.T) {
	conn := setupTestDB(t)
	today := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, conn, 100, today.AddDate(0, 0, 10), models.InvoiceStatusSent)
	seedInvoice(t, conn, 200, today.AddDate(0, 0, -5), models.InvoiceStatusSent)

	svc := NewReceivablesService(conn, clock.Fixed(today))
	sum, err := svc.GetReceivablesSummary(today, Bucket1To30)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum.Invoices) != 1 || sum.Invoices[0].Bucket != Bucket1To30 {
		t.Fatalf("filtered rows = %+v, want the single 1_30 invoice", sum.Invoices)
	}
	// totals stay unfiltered
	if sum.Summary.GrandTotal != 300 || sum.Clients[0].Outstanding != 300 {
		t.Fatalf("totals = %v/%v, want 300/300", sum.Summary.GrandTotal, sum.Clients[0].Outstanding)
	}
}

func TestReceivablesAsOfShiftsBuckets(t *testing.T) {
	conn := setupTestDB(t)
	today := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	inv := seedInvoice(t, conn, 500, today.AddDate(0, 0, -25), models.InvoiceStatusSent)

	svc := NewReceivablesService(conn, clock.Fixed(today))

	sum, err := svc.GetReceivablesSummary(today, "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Invoices[0].Bucket != Bucket1To30 {
		t.Fatalf("bucket today = %s, want 1_30", sum.Invoices[0].Bucket)
	}

	// ten days later the same invoice has aged into the next bucket
	later := today.AddDate(0, 0, 10)
	sum, err = svc.GetReceivablesSummary(later, "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Invoices[0].Bucket != Bucket31To60 {
		t.Fatalf("bucket at +10d = %s, want 31_60", sum.Invoices[0].Bucket)
	}
	if sum.Invoices[0].InvoiceID != inv.ID || sum.Invoices[0].DaysPastDue != 35 {
		t.Fatalf("row = %+v, want invoice %d at 35 days past due", sum.Invoices[0], inv.ID)
	}
}
