package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string

	// VATRate is the single configurable rate used by the tax summary.
	VATRate float64
	// DeductibleCategories are expense categories counted into the
	// deductible total of the tax summary.
	DeductibleCategories []string
	// CommissionCategories are the commission-bearing expense categories
	// whose payees are tracked as commission recipients.
	CommissionCategories []string

	// SMTP settings for the reminder dispatcher. When Host is empty the
	// server falls back to a log-only dispatcher.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by user) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "travelops.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.VATRate = ParseFloat("VAT_RATE", 0.14)
	cfg.DeductibleCategories = ParseList("DEDUCTIBLE_CATEGORIES",
		"guide,driver,airport_staff,hotel_staff,ground_handler,transport,accommodation,fuel,office,marketing")
	cfg.CommissionCategories = ParseList("COMMISSION_CATEGORIES",
		"guide,driver,airport_staff,hotel_staff,ground_handler")
	cfg.SMTPHost = getEnv("SMTP_HOST", "")
	cfg.SMTPPort = ParseInt("SMTP_PORT", 587)
	cfg.SMTPUser = getEnv("SMTP_USER", "")
	cfg.SMTPPass = getEnv("SMTP_PASS", "")
	cfg.MailFrom = getEnv("MAIL_FROM", "billing@travelops.local")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}

// ParseInt reads an env var as int with default.
func ParseInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

// ParseFloat reads an env var as float64 with default.
func ParseFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("invalid float for %s: %s", key, v)
			return def
		}
		return f
	}
	return def
}

// ParseList reads an env var as a comma separated list with default.
func ParseList(key, def string) []string {
	raw := getEnv(key, def)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
