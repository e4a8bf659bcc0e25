package db

import (
	"time"

	"gorm.io/gorm"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

// seed inserts a small explorable data set. Idempotent: baseline rows are
// matched by name/label before insertion.
func seed(conn *gorm.DB) {
	baseClients := []models.Client{
		{Name: "Sahara Expeditions", Email: "accounts@sahara-expeditions.example", Company: "Sahara Expeditions Ltd"},
		{Name: "Atlas Trekkers", Email: "billing@atlas-trekkers.example", Company: "Atlas Trekkers SARL"},
	}
	for _, c := range baseClients {
		var existing models.Client
		if err := conn.Where("name = ?", c.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			conn.Create(&c)
		}
	}

	now := time.Now().UTC()
	issue := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var client models.Client
	if err := conn.Where("name = ?", "Sahara Expeditions").First(&client).Error; err != nil {
		return
	}
	var invCount int64
	conn.Model(&models.Invoice{}).Count(&invCount)
	if invCount == 0 {
		conn.Create(&models.Invoice{
			ClientID:    client.ID,
			Currency:    "EUR",
			TotalAmount: 2400,
			BalanceDue:  2400,
			Status:      models.InvoiceStatusSent,
			IssueDate:   issue,
			DueDate:     issue.AddDate(0, 0, 30),
			SentAt:      &issue,
		})
	}

	var expCount int64
	conn.Model(&models.Expense{}).Count(&expCount)
	if expCount == 0 {
		conn.Create(&models.Expense{
			Category: "guide", Amount: 200, Status: models.ExpenseStatusPaid,
			ExpenseDate: issue, SupplierName: "Ahmed",
		})
		conn.Create(&models.Expense{
			Category: "fuel", Amount: 90, Status: models.ExpenseStatusPending,
			ExpenseDate: issue,
		})
	}
}
