package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"upkeep/internal/model"
	"upkeep/internal/upkeep"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Monthly maintenance reminders",
}

var alertsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run today's alert check",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp("CheckAlerts")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Service().Alerts.Check(force)
		if err != nil {
			return err
		}
		if result.Skipped {
			fmt.Println("Already checked today. Use --force to check again.")
			return nil
		}
		if len(result.Alerts) == 0 && result.Summary == nil {
			fmt.Println("No alerts due today.")
		}
		printAlerts(a, result)
		return nil
	},
}

var alertsConfigCmd = &cobra.Command{
	Use:   "config DAY PREWARN",
	Short: "Set the reminder day (1-28) and the pre-warning days (1-27)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := strconv.Atoi(args[0])
		if err != nil {
			return &upkeep.ValidationError{Field: "alert day of month", Reason: "not a number: " + args[0]}
		}
		preWarning, err := strconv.Atoi(args[1])
		if err != nil {
			return &upkeep.ValidationError{Field: "pre-warning days", Reason: "not a number: " + args[1]}
		}

		a, err := newApp("ConfigureAlerts")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().Alerts.Configure(day, preWarning); err != nil {
			return err
		}
		fmt.Printf("Reminder on day %d, pre-warning %d days before month end\n", day, preWarning)
		return nil
	},
}

var alertsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the alert configuration and this month's dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AlertStatus")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Service().Alerts.Status()
		if err != nil {
			return err
		}

		last := s.LastCheck
		if last == "" {
			last = "never"
		} else if d, err := time.Parse(model.ISODate, last); err == nil {
			last = a.FormatDate(d)
		}
		fmt.Printf("  Reminder day:      %d\n", s.AlertDayOfMonth)
		fmt.Printf("  Last check:        %s\n", last)
		printSummary(a, &s.AlertSummary)
		return nil
	},
}

var alertsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep running and check alerts on a cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		schedule, _ := cmd.Flags().GetString("schedule")

		a, err := newApp("WatchAlerts")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Watch(ctx, schedule, func(result *upkeep.AlertResult, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "alert check failed: %v\n", err)
				return
			}
			printAlerts(a, result)
		})
	},
}

func init() {
	alertsCmd.AddCommand(alertsCheckCmd)
	alertsCmd.AddCommand(alertsConfigCmd)
	alertsCmd.AddCommand(alertsStatusCmd)
	alertsCmd.AddCommand(alertsWatchCmd)

	alertsCheckCmd.Flags().Bool("force", false, "Check even if today was already checked")
	alertsWatchCmd.Flags().String("schedule", "", "Cron expression (default: alerts.watch_schedule)")
}
