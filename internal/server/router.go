package server

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/config"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/handlers"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/httpx"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/mail"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/services"
)

// New constructs the root http.Handler with all routes applied.
func New(db *gorm.DB, cfg config.Config, mailer mail.Dispatcher, clk clock.Clock) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	ledger := services.NewLedgerService(db)
	scheduler := services.NewScheduler(db, mailer, clk)
	reports := services.NewReportService(db, cfg)
	receivables := services.NewReceivablesService(db, clk)

	// Invoice endpoints
	ih := handlers.NewInvoiceHandler(db, ledger, clk)
	mux.Handle("/invoices", methods(map[string]http.HandlerFunc{
		http.MethodGet:  ih.List,
		http.MethodPost: ih.Create,
	}))
	mux.Handle("/invoices/get", methods(map[string]http.HandlerFunc{http.MethodGet: ih.Get}))
	mux.Handle("/invoices/send", methods(map[string]http.HandlerFunc{http.MethodPost: ih.Send}))
	mux.Handle("/invoices/viewed", methods(map[string]http.HandlerFunc{http.MethodPost: ih.MarkViewed}))
	mux.Handle("/invoices/cancel", methods(map[string]http.HandlerFunc{http.MethodPost: ih.Cancel}))

	// Payment endpoints
	ph := handlers.NewPaymentHandler(ledger)
	mux.Handle("/payments", methods(map[string]http.HandlerFunc{http.MethodPost: ph.Create}))
	mux.Handle("/payments/delete", methods(map[string]http.HandlerFunc{http.MethodPost: ph.Delete}))

	// Expense endpoints
	eh := handlers.NewExpenseHandler(db)
	mux.Handle("/expenses", methods(map[string]http.HandlerFunc{
		http.MethodGet:  eh.List,
		http.MethodPost: eh.Create,
	}))

	// Reminder endpoints
	rh := handlers.NewReminderHandler(scheduler)
	mux.Handle("/reminders/pending", methods(map[string]http.HandlerFunc{http.MethodGet: rh.Pending}))
	mux.Handle("/reminders/send", methods(map[string]http.HandlerFunc{http.MethodPost: rh.Send}))
	mux.Handle("/reminders/send-batch", methods(map[string]http.HandlerFunc{http.MethodPost: rh.SendBatch}))
	mux.Handle("/reminders/pause", methods(map[string]http.HandlerFunc{http.MethodPost: rh.TogglePause}))
	mux.Handle("/reminders/history", methods(map[string]http.HandlerFunc{http.MethodGet: rh.History}))

	// Report endpoints
	reph := handlers.NewReportHandler(reports, receivables)
	mux.Handle("/reports/financial", methods(map[string]http.HandlerFunc{http.MethodGet: reph.Financial}))
	mux.Handle("/reports/receivables", methods(map[string]http.HandlerFunc{http.MethodGet: reph.ReceivablesView}))

	return mux
}

// methods dispatches by HTTP method and answers 405 with an Allow header
// otherwise.
func methods(routes map[string]http.HandlerFunc) http.Handler {
	allow := ""
	for m := range routes {
		if allow != "" {
			allow += ","
		}
		allow += m
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.Method]; ok {
			h(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
}
