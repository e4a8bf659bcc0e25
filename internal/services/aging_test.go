package services

import (
	"testing"
	"time"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

func TestClassifyBoundaries(t *testing.T) {
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		daysPast int
		want     Bucket
	}{
		{"ten days early", -10, BucketCurrent},
		{"due today", 0, BucketCurrent},
		{"one day late", 1, Bucket1To30},
		{"day 30 stays in first tier", 30, Bucket1To30},
		{"day 31 moves up", 31, Bucket31To60},
		{"day 60 stays in second tier", 60, Bucket31To60},
		{"day 61 is the top tier", 61, Bucket90Plus},
		{"deep overdue", 120, Bucket90Plus},
	}
	for _, tc := range cases {
		inv := &models.Invoice{BalanceDue: 100, DueDate: due}
		today := due.AddDate(0, 0, tc.daysPast)
		got, ok := Classify(inv, today)
		if !ok {
			t.Fatalf("%s: expected outstanding", tc.name)
		}
		if got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestClassifyExcludesSettled(t *testing.T) {
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{BalanceDue: 0, DueDate: due}
	if _, ok := Classify(inv, due.AddDate(0, 0, 45)); ok {
		t.Fatalf("zero balance must be excluded from aging")
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{BalanceDue: 100, DueDate: due.Add(18 * time.Hour)}
	today := due.AddDate(0, 0, 30).Add(23 * time.Hour)
	got, _ := Classify(inv, today)
	if got != Bucket1To30 {
		t.Fatalf("time-of-day shifted the boundary: got %s", got)
	}
}

func TestPartialPaymentAgingScenario(t *testing.T) {
	// total 1000, payment of 400 leaves 600 outstanding; at due+35 days the
	// invoice sits in the 31-60 bucket.
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{
		TotalAmount: 1000, AmountPaid: 400, BalanceDue: 600,
		Status: models.InvoiceStatusPartial, DueDate: due,
	}
	today := due.AddDate(0, 0, 35)
	if got := DaysPastDue(inv, today); got != 35 {
		t.Fatalf("days past due: got %d want 35", got)
	}
	bucket, ok := Classify(inv, today)
	if !ok || bucket != Bucket31To60 {
		t.Fatalf("got bucket %s want %s", bucket, Bucket31To60)
	}
}

func TestSummarizeTotalsMatchBalances(t *testing.T) {
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		{BalanceDue: 100, DueDate: due.AddDate(0, 0, 10)},  // current
		{BalanceDue: 250.25, DueDate: due},                 // due today -> current
		{BalanceDue: 300, DueDate: due.AddDate(0, 0, -15)}, // 1-30
		{BalanceDue: 75.50, DueDate: due.AddDate(0, 0, -45)},
		{BalanceDue: 500, DueDate: due.AddDate(0, 0, -80)},
		{BalanceDue: 0, DueDate: due.AddDate(0, 0, -200)}, // settled, excluded
	}
	sum := Summarize(invoices, due)

	var wantTotal float64
	for _, inv := range invoices {
		if inv.BalanceDue > 0 {
			wantTotal += inv.BalanceDue
		}
	}
	bucketTotal := sum.Current.Total + sum.Days1To30.Total + sum.Days31To60.Total + sum.Days90Plus.Total
	if bucketTotal != wantTotal {
		t.Fatalf("bucket totals %v != outstanding total %v", bucketTotal, wantTotal)
	}
	if sum.GrandTotal != wantTotal {
		t.Fatalf("grand total %v != outstanding total %v", sum.GrandTotal, wantTotal)
	}
	if sum.Count != 5 {
		t.Fatalf("expected 5 outstanding invoices, got %d", sum.Count)
	}
	if sum.Current.Count != 2 || sum.Days1To30.Count != 1 || sum.Days31To60.Count != 1 || sum.Days90Plus.Count != 1 {
		t.Fatalf("bad bucket counts: %+v", sum)
	}
}
