package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/httpx"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/services"
)

type InvoiceHandler struct {
	DB     *gorm.DB
	Ledger *services.LedgerService
	Clk    clock.Clock
}

func NewInvoiceHandler(db *gorm.DB, ledger *services.LedgerService, clk clock.Clock) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Ledger: ledger, Clk: clk}
}

type invoiceView struct {
	models.Invoice
	DisplayStatus string          `json:"display_status"`
	Bucket        services.Bucket `json:"bucket,omitempty"`
}

func (h *InvoiceHandler) view(inv *models.Invoice, today time.Time) invoiceView {
	v := invoiceView{Invoice: *inv, DisplayStatus: services.DisplayStatus(inv, today)}
	if bucket, ok := services.Classify(inv, today); ok {
		v.Bucket = bucket
	}
	return v
}

// List: GET /invoices – optional status filter and pagination.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	dbq := h.DB.Preload("Client")
	if status := r.URL.Query().Get("status"); status != "" {
		dbq = dbq.Where("status = ?", status)
	}
	var total int64
	dbq.Model(&models.Invoice{}).Count(&total)
	var invs []models.Invoice
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&invs).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	today := h.Clk.Today()
	items := make([]invoiceView, 0, len(invs))
	for i := range invs {
		items = append(items, h.view(&invs[i], today))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /invoices – new draft invoice.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	type createReq struct {
		ClientID    uint    `json:"client_id"`
		Currency    string  `json:"currency"`
		TotalAmount float64 `json:"total_amount"`
		IssueDate   string  `json:"issue_date"` // YYYY-MM-DD
		DueDate     string  `json:"due_date"`   // YYYY-MM-DD
	}
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ClientID == 0 || req.TotalAmount <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_invoice", "client_id and a positive total_amount are required")
		return
	}
	var client models.Client
	if err := h.DB.First(&client, req.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "client_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	issue, err := parseDate(req.IssueDate, h.Clk.Today())
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_issue_date", nil)
		return
	}
	due, err := parseDate(req.DueDate, issue.AddDate(0, 0, 30))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_due_date", nil)
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	inv := models.Invoice{
		ClientID:    req.ClientID,
		Currency:    currency,
		TotalAmount: req.TotalAmount,
		BalanceDue:  req.TotalAmount,
		Status:      models.InvoiceStatusDraft,
		IssueDate:   issue,
		DueDate:     due,
	}
	if err := h.DB.Create(&inv).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, h.view(&inv, h.Clk.Today()))
}

// Get: GET /invoices/get?id= – one invoice with payments and reminder log.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	var inv models.Invoice
	if err := h.DB.Preload("Client").First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	var payments []models.Payment
	h.DB.Where("invoice_id = ?", inv.ID).Order("payment_date asc").Find(&payments)
	var reminders []models.ReminderRecord
	h.DB.Where("invoice_id = ?", inv.ID).Order("id desc").Find(&reminders)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoice":   h.view(&inv, h.Clk.Today()),
		"payments":  payments,
		"reminders": reminders,
	})
}

// Send: POST /invoices/send?id= – draft to sent.
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Ledger.MarkSent)
}

// MarkViewed: POST /invoices/viewed?id=.
func (h *InvoiceHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Ledger.MarkViewed)
}

// Cancel: POST /invoices/cancel?id=.
func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Ledger.Cancel)
}

func (h *InvoiceHandler) lifecycle(w http.ResponseWriter, r *http.Request, op func(uint) (*models.Invoice, error)) {
	id, ok := queryID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	inv, err := op(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv, h.Clk.Today()))
}

func parseDate(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}
