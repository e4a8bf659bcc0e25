package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/httpx"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/services"
)

// writeServiceError maps the service error taxonomy onto HTTP codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Error())
	case errors.Is(err, services.ErrInvoiceNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrClientNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrConcurrencyConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", err.Error())
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// queryID parses an unsigned id from the named query parameter.
func queryID(r *http.Request, name string) (uint, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
