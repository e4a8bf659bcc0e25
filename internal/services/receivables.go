package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

// ReceivablesService builds the per-client and per-invoice aging views.
type ReceivablesService struct {
	DB  *gorm.DB
	Clk clock.Clock
}

func NewReceivablesService(db *gorm.DB, clk clock.Clock) *ReceivablesService {
	return &ReceivablesService{DB: db, Clk: clk}
}

// InvoiceAgingRow is one outstanding invoice in the receivables view.
type InvoiceAgingRow struct {
	InvoiceID     uint      `json:"invoice_id"`
	ClientID      uint      `json:"client_id"`
	ClientName    string    `json:"client_name"`
	Currency      string    `json:"currency"`
	TotalAmount   float64   `json:"total_amount"`
	BalanceDue    float64   `json:"balance_due"`
	DueDate       time.Time `json:"due_date"`
	DaysPastDue   int       `json:"days_past_due"`
	Bucket        Bucket    `json:"bucket"`
	DisplayStatus string    `json:"display_status"`
}

// ClientAgingRow aggregates one client's outstanding invoices per bucket.
type ClientAgingRow struct {
	ClientID    uint    `json:"client_id"`
	ClientName  string  `json:"client_name"`
	Outstanding float64 `json:"outstanding"`
	Current     float64 `json:"current"`
	Days1To30   float64 `json:"days_1_30"`
	Days31To60  float64 `json:"days_31_60"`
	Days90Plus  float64 `json:"days_90_plus"`
	Count       int     `json:"count"`
}

// ReceivablesSummary is the full receivables view handed to presentation.
type ReceivablesSummary struct {
	AsOf     time.Time         `json:"as_of"`
	Clients  []ClientAgingRow  `json:"clients"`
	Invoices []InvoiceAgingRow `json:"invoices"`
	Summary  AgingSummary      `json:"summary"`
}

// GetReceivablesSummary classifies every outstanding invoice as of the given
// date (zero means today) and optionally filters the invoice rows by bucket.
// The grand totals always cover the unfiltered outstanding set.
func (s *ReceivablesService) GetReceivablesSummary(asOf time.Time, bucketFilter Bucket) (*ReceivablesSummary, error) {
	if asOf.IsZero() {
		asOf = s.Clk.Today()
	} else {
		asOf = clock.Date(asOf)
	}

	var invoices []models.Invoice
	if err := s.DB.Preload("Client").
		Where("balance_due > 0 AND status <> ?", models.InvoiceStatusCancelled).
		Order("due_date asc").
		Find(&invoices).Error; err != nil {
		return nil, err
	}

	out := &ReceivablesSummary{
		AsOf:     asOf,
		Clients:  []ClientAgingRow{},
		Invoices: []InvoiceAgingRow{},
		Summary:  Summarize(invoices, asOf),
	}

	clientIndex := map[uint]int{}
	for i := range invoices {
		inv := &invoices[i]
		bucket, ok := Classify(inv, asOf)
		if !ok {
			continue
		}

		idx, seen := clientIndex[inv.ClientID]
		if !seen {
			idx = len(out.Clients)
			clientIndex[inv.ClientID] = idx
			out.Clients = append(out.Clients, ClientAgingRow{
				ClientID:   inv.ClientID,
				ClientName: inv.Client.Name,
			})
		}
		row := &out.Clients[idx]
		row.Outstanding += inv.BalanceDue
		row.Count++
		switch bucket {
		case BucketCurrent:
			row.Current += inv.BalanceDue
		case Bucket1To30:
			row.Days1To30 += inv.BalanceDue
		case Bucket31To60:
			row.Days31To60 += inv.BalanceDue
		case Bucket90Plus:
			row.Days90Plus += inv.BalanceDue
		}

		if bucketFilter != "" && bucket != bucketFilter {
			continue
		}
		out.Invoices = append(out.Invoices, InvoiceAgingRow{
			InvoiceID:     inv.ID,
			ClientID:      inv.ClientID,
			ClientName:    inv.Client.Name,
			Currency:      inv.Currency,
			TotalAmount:   inv.TotalAmount,
			BalanceDue:    inv.BalanceDue,
			DueDate:       inv.DueDate,
			DaysPastDue:   DaysPastDue(inv, asOf),
			Bucket:        bucket,
			DisplayStatus: DisplayStatus(inv, asOf),
		})
	}
	return out, nil
}
