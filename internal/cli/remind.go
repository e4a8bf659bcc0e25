package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/mail"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/services"
)

var remindDryRun bool

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Payment reminder operations",
}

var remindRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run today's automatic reminder pass over all active invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, conn, err := connect()
		if err != nil {
			return err
		}

		// A dry run only evaluates eligibility. It must not dispatch,
		// claim a milestone, or write to the reminder log, otherwise the
		// next real run would skip milestones that were never delivered.
		if remindDryRun {
			sched := services.NewScheduler(conn, mail.LogDispatcher{}, clock.System())
			candidates, err := sched.PendingReminders()
			if err != nil {
				return err
			}
			fmt.Printf("dry run: %d reminder(s) would be sent\n", len(candidates))
			for _, c := range candidates {
				fmt.Printf("  invoice %d (%s) %s: %.2f due %s -> %s\n",
					c.InvoiceID, c.ClientName, c.ReminderType, c.BalanceDue,
					c.DueDate.Format("2006-01-02"), c.Recipient)
			}
			return nil
		}

		mailer, err := mail.ForConfig(cfg)
		if err != nil {
			return err
		}

		sched := services.NewScheduler(conn, mailer, clock.System())
		batch, err := sched.SendAll(true)
		if err != nil {
			return err
		}
		fmt.Printf("run %s: sent=%d failed=%d skipped=%d\n",
			batch.RunID, batch.Sent, batch.Failed, batch.Skipped)
		for _, d := range batch.Details {
			line := fmt.Sprintf("  invoice %d %s: %s", d.InvoiceID, d.ReminderType, d.Status)
			if d.Error != "" {
				line += " (" + d.Error + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var remindPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List reminders that would be sent today",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, conn, err := connect()
		if err != nil {
			return err
		}
		sched := services.NewScheduler(conn, mail.LogDispatcher{}, clock.System())
		candidates, err := sched.PendingReminders()
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			fmt.Println("nothing due today")
			return nil
		}
		for _, c := range candidates {
			fmt.Printf("invoice %d (%s) %s: %.2f due %s -> %s\n",
				c.InvoiceID, c.ClientName, c.ReminderType, c.BalanceDue,
				c.DueDate.Format("2006-01-02"), c.Recipient)
		}
		return nil
	},
}

func init() {
	remindRunCmd.Flags().BoolVar(&remindDryRun, "dry-run", false, "list what would be sent without dispatching or recording anything")
	remindCmd.AddCommand(remindRunCmd)
	remindCmd.AddCommand(remindPendingCmd)
}
