package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/services"
)

var reportYear int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the yearly financial report as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, conn, err := connect()
		if err != nil {
			return err
		}
		year := reportYear
		if year == 0 {
			year = time.Now().UTC().Year()
		}
		report, err := services.NewReportService(conn, cfg).FinancialReport(year)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "target year (default: current)")
}
