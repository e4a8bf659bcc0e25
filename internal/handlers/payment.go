package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/httpx"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/services"
)

type PaymentHandler struct {
	Ledger *services.LedgerService
}

func NewPaymentHandler(ledger *services.LedgerService) *PaymentHandler {
	return &PaymentHandler{Ledger: ledger}
}

// Create: POST /payments – apply a payment to an invoice.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	type createReq struct {
		InvoiceID   uint    `json:"invoice_id"`
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency"`
		Method      string  `json:"method"`
		PaymentDate string  `json:"payment_date"` // YYYY-MM-DD
		Reference   string  `json:"reference"`
	}
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.InvoiceID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_invoice_id", nil)
		return
	}
	var when time.Time
	if req.PaymentDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.PaymentDate, time.UTC)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_payment_date", nil)
			return
		}
		when = parsed
	}
	inv, pay, err := h.Ledger.ApplyPayment(req.InvoiceID, services.PaymentInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Method:      req.Method,
		PaymentDate: when,
		Reference:   req.Reference,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"invoice": inv, "payment": pay})
}

// Delete: POST /payments/delete?id= – retract a payment and re-derive the
// invoice balance.
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	inv, err := h.Ledger.RetractPayment(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoice": inv})
}
