package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/httpx"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/services"
)

type ReminderHandler struct {
	Scheduler *services.Scheduler
}

func NewReminderHandler(sched *services.Scheduler) *ReminderHandler {
	return &ReminderHandler{Scheduler: sched}
}

// Pending: GET /reminders/pending – (invoice, due-type) pairs for today.
func (h *ReminderHandler) Pending(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.Scheduler.PendingReminders()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": candidates, "count": len(candidates)})
}

// Send: POST /reminders/send – one reminder. Omitted type means the
// automatic type due today; "manual" is the only explicit type and may be
// issued at any time.
func (h *ReminderHandler) Send(w http.ResponseWriter, r *http.Request) {
	type sendReq struct {
		InvoiceID uint   `json:"invoice_id"`
		Type      string `json:"type"`
	}
	var req sendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.InvoiceID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_invoice_id", nil)
		return
	}
	res, err := h.Scheduler.SendReminder(req.InvoiceID, req.Type)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// SendBatch: POST /reminders/send-batch – {"all": true} or {"ids": [...]}.
func (h *ReminderHandler) SendBatch(w http.ResponseWriter, r *http.Request) {
	type batchReq struct {
		All bool   `json:"all"`
		IDs []uint `json:"ids"`
	}
	var req batchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	var (
		batch *services.BatchResult
		err   error
	)
	if req.All {
		batch, err = h.Scheduler.SendAll(true)
	} else {
		batch, err = h.Scheduler.SendSelected(req.IDs)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}

// TogglePause: POST /reminders/pause?id= – flip the invoice's pause flag.
func (h *ReminderHandler) TogglePause(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	inv, err := h.Scheduler.TogglePause(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoice_id": inv.ID, "reminder_paused": inv.ReminderPaused})
}

// History: GET /reminders/history?id= – the append-only log for an invoice.
func (h *ReminderHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	records, err := h.Scheduler.History(id)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if records == nil {
		records = []models.ReminderRecord{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": records})
}
