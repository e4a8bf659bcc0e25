package services

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/config"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

// ReportService aggregates invoices, expenses, and trips into the yearly
// financial report. Every builder below is pure: same inputs, identical
// outputs, no side effects.
type ReportService struct {
	DB  *gorm.DB
	Cfg ReportConfig
}

// ReportConfig parameterizes the aggregation engine. The VAT rate and the
// category sets are configuration, never inline literals.
type ReportConfig struct {
	VATRate              float64
	DeductibleCategories map[string]bool
	CommissionCategories map[string]bool
}

func NewReportService(db *gorm.DB, cfg config.Config) *ReportService {
	return &ReportService{DB: db, Cfg: ReportConfig{
		VATRate:              cfg.VATRate,
		DeductibleCategories: toSet(cfg.DeductibleCategories),
		CommissionCategories: toSet(cfg.CommissionCategories),
	}}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}

type MonthlyRollup struct {
	Month        int     `json:"month"`
	Invoiced     float64 `json:"invoiced"`
	Collected    float64 `json:"collected"`
	Expenses     float64 `json:"expenses"`
	ExpensesPaid float64 `json:"expenses_paid"`
	NetProfit    float64 `json:"net_profit"`
	InvoiceCount int     `json:"invoice_count"`
	ExpenseCount int     `json:"expense_count"`
	TripCount    int     `json:"trip_count"`
}

type QuarterlyRollup struct {
	Quarter   int     `json:"quarter"`
	Revenue   float64 `json:"revenue"`
	Expenses  float64 `json:"expenses"`
	NetProfit float64 `json:"net_profit"`
	Margin    float64 `json:"margin"`
}

type CashFlowMonth struct {
	Month    int     `json:"month"`
	Inflows  float64 `json:"inflows"`
	Outflows float64 `json:"outflows"`
}

type CashFlow struct {
	Inflows            float64         `json:"inflows"`
	Outflows           float64         `json:"outflows"`
	PendingReceivables float64         `json:"pending_receivables"`
	PendingPayables    float64         `json:"pending_payables"`
	ProjectedCash      float64         `json:"projected_cash"`
	Monthly            []CashFlowMonth `json:"monthly"`
}

type CategoryBreakdown struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Share      float64 `json:"share"` // percentage of all expenses
	Deductible bool    `json:"deductible"`
}

type TaxSummary struct {
	GrossRevenue       float64             `json:"gross_revenue"`
	DeductibleExpenses float64             `json:"deductible_expenses"`
	TaxableIncome      float64             `json:"taxable_income"`
	VATRate            float64             `json:"vat_rate"`
	VATOnRevenue       float64             `json:"vat_on_revenue"`
	VATOnExpenses      float64             `json:"vat_on_expenses"`
	NetVAT             float64             `json:"net_vat"`
	Categories         []CategoryBreakdown `json:"categories"`
}

type CommissionRecipient struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	TotalEarned  float64 `json:"total_earned"`
	TotalPaid    float64 `json:"total_paid"`
	TotalPending float64 `json:"total_pending"`
	TripCount    int     `json:"trip_count"`
}

type CommissionCategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

type CommissionSummary struct {
	Recipients   []CommissionRecipient     `json:"recipients"`
	ByCategory   []CommissionCategoryTotal `json:"by_category"`
	TotalEarned  float64                   `json:"total_earned"`
	TotalPaid    float64                   `json:"total_paid"`
	TotalPending float64                   `json:"total_pending"`
}

type YearOverYear struct {
	Year             int     `json:"year"`
	PriorYear        int     `json:"prior_year"`
	Revenue          float64 `json:"revenue"`
	PriorRevenue     float64 `json:"prior_revenue"`
	RevenueDelta     float64 `json:"revenue_delta"`
	RevenueDeltaPct  float64 `json:"revenue_delta_pct"`
	Expenses         float64 `json:"expenses"`
	PriorExpenses    float64 `json:"prior_expenses"`
	ExpensesDelta    float64 `json:"expenses_delta"`
	ExpensesDeltaPct float64 `json:"expenses_delta_pct"`
}

type ReportSummary struct {
	TotalRevenue     float64 `json:"total_revenue"`
	TotalCollected   float64 `json:"total_collected"`
	TotalOutstanding float64 `json:"total_outstanding"`
	TotalExpenses    float64 `json:"total_expenses"`
	NetProfit        float64 `json:"net_profit"`
	InvoiceCount     int     `json:"invoice_count"`
	ExpenseCount     int     `json:"expense_count"`
	TripCount        int     `json:"trip_count"`
}

type FinancialReport struct {
	Year           int               `json:"year"`
	Summary        ReportSummary     `json:"summary"`
	Monthly        []MonthlyRollup   `json:"monthly"`
	Quarterly      []QuarterlyRollup `json:"quarterly"`
	CashFlow       CashFlow          `json:"cash_flow"`
	TaxSummary     TaxSummary        `json:"tax_summary"`
	Commission     CommissionSummary `json:"commission_summary"`
	YearOverYear   YearOverYear      `json:"year_over_year"`
	AvailableYears []int             `json:"available_years"`
	SkippedRecords int               `json:"skipped_records"`
}

// inYear checks the timezone-naive calendar year of a record date. A zero
// date never matches and is counted as skipped by the callers.
func inYear(t time.Time, year int) bool {
	return !t.IsZero() && t.Year() == year
}

// BuildMonthly produces the 12 calendar-month rollups for a year. Records
// whose date is zero or outside the year are skipped and counted.
func BuildMonthly(year int, invoices []models.Invoice, expenses []models.Expense, trips []models.Trip) ([]MonthlyRollup, int) {
	months := make([]MonthlyRollup, 12)
	for m := range months {
		months[m].Month = m + 1
	}
	skipped := 0
	for i := range invoices {
		if !inYear(invoices[i].IssueDate, year) {
			skipped++
			continue
		}
		m := &months[int(invoices[i].IssueDate.Month())-1]
		m.Invoiced += invoices[i].TotalAmount
		m.Collected += invoices[i].AmountPaid
		m.InvoiceCount++
	}
	for i := range expenses {
		if !inYear(expenses[i].ExpenseDate, year) {
			skipped++
			continue
		}
		m := &months[int(expenses[i].ExpenseDate.Month())-1]
		m.Expenses += expenses[i].Amount
		m.ExpenseCount++
		if expenses[i].Status == models.ExpenseStatusPaid {
			m.ExpensesPaid += expenses[i].Amount
		}
	}
	for i := range trips {
		if !inYear(trips[i].StartDate, year) {
			skipped++
			continue
		}
		months[int(trips[i].StartDate.Month())-1].TripCount++
	}
	for m := range months {
		months[m].NetProfit = months[m].Invoiced - months[m].Expenses
	}
	return months, skipped
}

// BuildQuarterly folds the 12 monthly rollups into the 4 fixed quarters.
func BuildQuarterly(monthly []MonthlyRollup) []QuarterlyRollup {
	quarters := make([]QuarterlyRollup, 4)
	for q := range quarters {
		quarters[q].Quarter = q + 1
	}
	for i := range monthly {
		q := &quarters[(monthly[i].Month-1)/3]
		q.Revenue += monthly[i].Invoiced
		q.Expenses += monthly[i].Expenses
	}
	for q := range quarters {
		quarters[q].NetProfit = quarters[q].Revenue - quarters[q].Expenses
		if quarters[q].Revenue > 0 {
			quarters[q].Margin = quarters[q].NetProfit / quarters[q].Revenue * 100
		}
	}
	return quarters
}

// BuildCashFlow combines actual in/out flows with pending receivables and
// payables into a projection. The monthly columns mirror the monthly
// rollup's collected and paid-expense figures.
func BuildCashFlow(year int, invoices []models.Invoice, expenses []models.Expense, monthly []MonthlyRollup) CashFlow {
	cf := CashFlow{Monthly: make([]CashFlowMonth, 0, len(monthly))}
	for i := range invoices {
		if !inYear(invoices[i].IssueDate, year) {
			continue
		}
		if invoices[i].AmountPaid > 0 {
			cf.Inflows += invoices[i].AmountPaid
		}
		cf.PendingReceivables += invoices[i].BalanceDue
	}
	for i := range expenses {
		if !inYear(expenses[i].ExpenseDate, year) {
			continue
		}
		switch expenses[i].Status {
		case models.ExpenseStatusPaid:
			cf.Outflows += expenses[i].Amount
		case models.ExpenseStatusRejected:
			// neither an outflow nor a payable
		default:
			cf.PendingPayables += expenses[i].Amount
		}
	}
	cf.ProjectedCash = (cf.Inflows - cf.Outflows) + cf.PendingReceivables - cf.PendingPayables
	for i := range monthly {
		cf.Monthly = append(cf.Monthly, CashFlowMonth{
			Month:    monthly[i].Month,
			Inflows:  monthly[i].Collected,
			Outflows: monthly[i].ExpensesPaid,
		})
	}
	return cf
}

// BuildTaxSummary computes deductible totals, the per-category share of all
// expenses, and the VAT estimate at the configured rate.
func BuildTaxSummary(year int, cfg ReportConfig, invoices []models.Invoice, expenses []models.Expense) TaxSummary {
	ts := TaxSummary{VATRate: cfg.VATRate, Categories: []CategoryBreakdown{}}
	for i := range invoices {
		if !inYear(invoices[i].IssueDate, year) {
			continue
		}
		ts.GrossRevenue += invoices[i].TotalAmount
	}

	byCategory := map[string]float64{}
	var totalExpenses float64
	for i := range expenses {
		if !inYear(expenses[i].ExpenseDate, year) {
			continue
		}
		cat := expenses[i].Category
		byCategory[cat] += expenses[i].Amount
		totalExpenses += expenses[i].Amount
		if cfg.DeductibleCategories[cat] {
			ts.DeductibleExpenses += expenses[i].Amount
		}
	}
	ts.TaxableIncome = ts.GrossRevenue - ts.DeductibleExpenses
	ts.VATOnRevenue = ts.GrossRevenue * cfg.VATRate
	ts.VATOnExpenses = totalExpenses * cfg.VATRate
	ts.NetVAT = (ts.GrossRevenue - totalExpenses) * cfg.VATRate

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		share := 0.0
		if totalExpenses > 0 {
			share = byCategory[cat] / totalExpenses * 100
		}
		ts.Categories = append(ts.Categories, CategoryBreakdown{
			Category:   cat,
			Amount:     byCategory[cat],
			Share:      share,
			Deductible: cfg.DeductibleCategories[cat],
		})
	}
	return ts
}

// BuildCommissionSummary groups commission-bearing expenses by supplier.
// Suppliers with no recorded name fall back to a category-derived
// placeholder so their totals are not silently merged away.
func BuildCommissionSummary(year int, cfg ReportConfig, expenses []models.Expense) CommissionSummary {
	cs := CommissionSummary{Recipients: []CommissionRecipient{}, ByCategory: []CommissionCategoryTotal{}}
	recipientIndex := map[string]int{}
	categoryIndex := map[string]int{}

	for i := range expenses {
		exp := &expenses[i]
		if !inYear(exp.ExpenseDate, year) || !cfg.CommissionCategories[exp.Category] {
			continue
		}
		name := exp.SupplierName
		if name == "" {
			name = "unassigned " + exp.Category
		}

		idx, seen := recipientIndex[name]
		if !seen {
			idx = len(cs.Recipients)
			recipientIndex[name] = idx
			cs.Recipients = append(cs.Recipients, CommissionRecipient{Name: name, Category: exp.Category})
		}
		rec := &cs.Recipients[idx]
		rec.TotalEarned += exp.Amount
		rec.TripCount++
		if exp.Status == models.ExpenseStatusPaid {
			rec.TotalPaid += exp.Amount
		} else {
			rec.TotalPending += exp.Amount
		}

		cidx, seen := categoryIndex[exp.Category]
		if !seen {
			cidx = len(cs.ByCategory)
			categoryIndex[exp.Category] = cidx
			cs.ByCategory = append(cs.ByCategory, CommissionCategoryTotal{Category: exp.Category})
		}
		cs.ByCategory[cidx].Total += exp.Amount
		cs.ByCategory[cidx].Count++

		cs.TotalEarned += exp.Amount
		if exp.Status == models.ExpenseStatusPaid {
			cs.TotalPaid += exp.Amount
		} else {
			cs.TotalPending += exp.Amount
		}
	}

	sort.Slice(cs.Recipients, func(a, b int) bool {
		return cs.Recipients[a].TotalEarned > cs.Recipients[b].TotalEarned
	})
	sort.Slice(cs.ByCategory, func(a, b int) bool {
		return cs.ByCategory[a].Category < cs.ByCategory[b].Category
	})
	return cs
}

// BuildYearOverYear compares revenue and expense totals against the prior
// year. Percentage deltas are zero when the prior-year base is zero.
func BuildYearOverYear(year int, invoices []models.Invoice, expenses []models.Expense,
	priorInvoices []models.Invoice, priorExpenses []models.Expense) YearOverYear {
	yoy := YearOverYear{Year: year, PriorYear: year - 1}
	for i := range invoices {
		if inYear(invoices[i].IssueDate, year) {
			yoy.Revenue += invoices[i].TotalAmount
		}
	}
	for i := range expenses {
		if inYear(expenses[i].ExpenseDate, year) {
			yoy.Expenses += expenses[i].Amount
		}
	}
	for i := range priorInvoices {
		if inYear(priorInvoices[i].IssueDate, year-1) {
			yoy.PriorRevenue += priorInvoices[i].TotalAmount
		}
	}
	for i := range priorExpenses {
		if inYear(priorExpenses[i].ExpenseDate, year-1) {
			yoy.PriorExpenses += priorExpenses[i].Amount
		}
	}
	yoy.RevenueDelta = yoy.Revenue - yoy.PriorRevenue
	if yoy.PriorRevenue != 0 {
		yoy.RevenueDeltaPct = yoy.RevenueDelta / yoy.PriorRevenue * 100
	}
	yoy.ExpensesDelta = yoy.Expenses - yoy.PriorExpenses
	if yoy.PriorExpenses != 0 {
		yoy.ExpensesDeltaPct = yoy.ExpensesDelta / yoy.PriorExpenses * 100
	}
	return yoy
}

// FinancialReport assembles the full yearly report from year-ranged store
// queries and the pure builders above.
func (s *ReportService) FinancialReport(year int) (*FinancialReport, error) {
	if year < 1900 || year > 3000 {
		return nil, validationErr("year", "out of range")
	}
	invoices, err := s.invoicesByYear(year)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expensesByYear(year)
	if err != nil {
		return nil, err
	}
	trips, err := s.tripsByYear(year)
	if err != nil {
		return nil, err
	}
	priorInvoices, err := s.invoicesByYear(year - 1)
	if err != nil {
		return nil, err
	}
	priorExpenses, err := s.expensesByYear(year - 1)
	if err != nil {
		return nil, err
	}

	monthly, skipped := BuildMonthly(year, invoices, expenses, trips)
	report := &FinancialReport{
		Year:           year,
		Monthly:        monthly,
		Quarterly:      BuildQuarterly(monthly),
		CashFlow:       BuildCashFlow(year, invoices, expenses, monthly),
		TaxSummary:     BuildTaxSummary(year, s.Cfg, invoices, expenses),
		Commission:     BuildCommissionSummary(year, s.Cfg, expenses),
		YearOverYear:   BuildYearOverYear(year, invoices, expenses, priorInvoices, priorExpenses),
		SkippedRecords: skipped,
	}
	for i := range monthly {
		report.Summary.TotalRevenue += monthly[i].Invoiced
		report.Summary.TotalCollected += monthly[i].Collected
		report.Summary.TotalExpenses += monthly[i].Expenses
		report.Summary.InvoiceCount += monthly[i].InvoiceCount
		report.Summary.ExpenseCount += monthly[i].ExpenseCount
		report.Summary.TripCount += monthly[i].TripCount
	}
	report.Summary.NetProfit = report.Summary.TotalRevenue - report.Summary.TotalExpenses
	for i := range invoices {
		report.Summary.TotalOutstanding += invoices[i].BalanceDue
	}

	years, err := s.availableYears(year)
	if err != nil {
		return nil, err
	}
	report.AvailableYears = years
	return report, nil
}

func yearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

func (s *ReportService) invoicesByYear(year int) ([]models.Invoice, error) {
	start, end := yearRange(year)
	var out []models.Invoice
	err := s.DB.Where("issue_date >= ? AND issue_date < ?", start, end).Find(&out).Error
	return out, err
}

func (s *ReportService) expensesByYear(year int) ([]models.Expense, error) {
	start, end := yearRange(year)
	var out []models.Expense
	err := s.DB.Where("expense_date >= ? AND expense_date < ?", start, end).Find(&out).Error
	return out, err
}

func (s *ReportService) tripsByYear(year int) ([]models.Trip, error) {
	start, end := yearRange(year)
	var out []models.Trip
	err := s.DB.Where("start_date >= ? AND start_date < ?", start, end).Find(&out).Error
	return out, err
}

// availableYears lists every year with at least one invoice, newest first,
// always including the requested year.
func (s *ReportService) availableYears(year int) ([]int, error) {
	var dates []time.Time
	if err := s.DB.Model(&models.Invoice{}).Pluck("issue_date", &dates).Error; err != nil {
		return nil, err
	}
	seen := map[int]bool{year: true}
	for _, d := range dates {
		if !d.IsZero() {
			seen[d.Year()] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}
