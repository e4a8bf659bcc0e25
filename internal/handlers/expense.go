package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/httpx"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

type ExpenseHandler struct {
	DB *gorm.DB
}

func NewExpenseHandler(db *gorm.DB) *ExpenseHandler {
	return &ExpenseHandler{DB: db}
}

// List: GET /expenses?year=&category=&status=.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Order("expense_date desc")
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_year", nil)
			return
		}
		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		dbq = dbq.Where("expense_date >= ? AND expense_date < ?", start, start.AddDate(1, 0, 0))
	}
	if v := r.URL.Query().Get("category"); v != "" {
		dbq = dbq.Where("category = ?", v)
	}
	if v := r.URL.Query().Get("status"); v != "" {
		dbq = dbq.Where("status = ?", v)
	}
	var expenses []models.Expense
	if err := dbq.Find(&expenses).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_expenses", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": expenses, "total": len(expenses)})
}

// Create: POST /expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	type createReq struct {
		Category     string  `json:"category"`
		Amount       float64 `json:"amount"`
		Status       string  `json:"status"`
		ExpenseDate  string  `json:"expense_date"` // YYYY-MM-DD
		SupplierName string  `json:"supplier_name"`
		Description  string  `json:"description"`
	}
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.Category == "" || req.Amount <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_expense", "category and a positive amount are required")
		return
	}
	when := time.Now().UTC()
	if req.ExpenseDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.ExpenseDate, time.UTC)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_expense_date", nil)
			return
		}
		when = parsed
	}
	status := req.Status
	if status == "" {
		status = models.ExpenseStatusPending
	}
	exp := models.Expense{
		Category:     req.Category,
		Amount:       req.Amount,
		Status:       status,
		ExpenseDate:  when,
		SupplierName: req.SupplierName,
		Description:  req.Description,
	}
	if err := h.DB.Create(&exp).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_expense", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, exp)
}
