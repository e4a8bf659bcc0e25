package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/httpx"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/services"
)

type ReportHandler struct {
	Reports     *services.ReportService
	Receivables *services.ReceivablesService
}

func NewReportHandler(reports *services.ReportService, receivables *services.ReceivablesService) *ReportHandler {
	return &ReportHandler{Reports: reports, Receivables: receivables}
}

// Financial: GET /reports/financial?year= – the full yearly report.
func (h *ReportHandler) Financial(w http.ResponseWriter, r *http.Request) {
	year := time.Now().UTC().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_year", nil)
			return
		}
		year = n
	}
	report, err := h.Reports.FinancialReport(year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// ReceivablesView: GET /reports/receivables?bucket=&as_of= – aging views.
func (h *ReportHandler) ReceivablesView(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_as_of", nil)
			return
		}
		asOf = parsed
	}
	bucket := services.Bucket(r.URL.Query().Get("bucket"))
	summary, err := h.Receivables.GetReceivablesSummary(asOf, bucket)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
