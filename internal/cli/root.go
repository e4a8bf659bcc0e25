package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/config"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/db"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "travelops",
	Short: "Operational CLI for the travel-ops ledger",
	Long: `travelops drives the ledger outside the HTTP server: the daily
reminder pass (meant to be invoked by cron or a scheduler) and
report dumps for a given year.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return logger.Setup(logger.FromEnv())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// connect loads config and opens the store for a subcommand.
func connect() (config.Config, *gorm.DB, error) {
	cfg := config.Load()
	conn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, conn, nil
}

func init() {
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(reportCmd)
}
