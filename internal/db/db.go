package db

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

// ConnectAndMigrate opens the store (postgres for URL/key-value DSNs, sqlite
// otherwise), runs AutoMigrate, and optionally seeds development data.
func ConnectAndMigrate(rawDSN string) (*gorm.DB, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check the environment configuration")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var conn *gorm.DB
	var err error
	if IsPostgres(dsn) {
		for i := 0; i < 10; i++ {
			conn, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			time.Sleep(2 * time.Second)
		}
	} else {
		conn, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	// Seeding only when explicitly requested (e.g. development) via DB_SEED=1|true
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(conn)
	}
	return conn, nil
}

// Migrate runs AutoMigrate over every model, in dependency order.
func Migrate(conn *gorm.DB) error {
	toMigrate := []interface{}{
		&models.Client{}, &models.Invoice{}, &models.Payment{},
		&models.Expense{}, &models.Trip{},
		&models.ReminderRecord{}, &models.ReminderDispatch{},
	}
	for _, m := range toMigrate {
		if migErr := conn.AutoMigrate(m); migErr != nil {
			return fmt.Errorf("automigrate %T: %w", m, migErr)
		}
	}
	return nil
}

// MaskDSN hides the password in a key=value DSN for diagnostics output.
func MaskDSN(dsn string) string {
	if strings.Contains(dsn, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		return re.ReplaceAllString(dsn, `${1}***`)
	}
	return dsn
}
