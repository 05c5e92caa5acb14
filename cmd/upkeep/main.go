package main

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"upkeep/internal/app"
	"upkeep/internal/config"
	"upkeep/internal/model"
	"upkeep/internal/upkeep"
)

func main() {
	if err := app.LoadEnv(app.EnvFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "upkeep",
	Short: "Equipment maintenance tracker",
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an UpkeepApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddRecord", "Backup").
func newApp(operation string) (*app.UpkeepApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewUpkeepApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// newCheckedApp is newApp followed by the daily start-up alert check.
func newCheckedApp(operation string) (*app.UpkeepApp, error) {
	a, err := newApp(operation)
	if err != nil {
		return nil, err
	}

	result, err := a.StartupCheck()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("checking alerts: %w", err)
	}
	printAlerts(a, result)
	return a, nil
}

var (
	reminderColor   = color.New(color.FgYellow, color.Bold)
	preWarningColor = color.New(color.FgRed, color.Bold)
)

func printAlerts(a *app.UpkeepApp, result *upkeep.AlertResult) {
	for _, alert := range result.Alerts {
		switch alert.Kind {
		case upkeep.AlertReminder:
			fmt.Printf("%s %s\n", reminderColor.Sprint("REMINDER"), alert.Message)
		case upkeep.AlertPreWarning:
			fmt.Printf("%s %s\n", preWarningColor.Sprint("PRE-WARNING"), alert.Message)
		}
	}
	if s := result.Summary; s != nil {
		fmt.Println("No alerts due today.")
		printSummary(a, s)
	}
}

func printSummary(a *app.UpkeepApp, s *upkeep.AlertSummary) {
	fmt.Printf("  Reminder date:     %s\n", a.FormatDate(s.AlertDate))
	fmt.Printf("  Pre-warning date:  %s (%d days before month end)\n", a.FormatDate(s.PreWarnDate), s.PreWarningDays)
	fmt.Printf("  Equipment without maintenance this month: %d\n", s.Gap)
}

func statusWord(s string) string {
	switch s {
	case "Completed":
		return color.New(color.FgGreen).Sprint(s)
	case "Pending":
		return color.New(color.FgYellow).Sprint(s)
	}
	return s
}

// readSecret prompts on stderr and reads a line without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readNewSecret asks twice and requires both answers to match.
func readNewSecret(prompt string) (string, error) {
	first, err := readSecret(prompt)
	if err != nil {
		return "", err
	}
	second, err := readSecret("Repeat: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("entries do not match")
	}
	return first, nil
}

// signedIn authenticates the operator named by --user. It returns nil when
// the flag is empty.
func signedIn(cmd *cobra.Command, a *app.UpkeepApp) (*model.User, error) {
	username, _ := cmd.Flags().GetString("user")
	if username == "" {
		return nil, nil
	}

	password, err := readSecret(fmt.Sprintf("Password for %s: ", username))
	if err != nil {
		return nil, err
	}
	return a.Service().Operators.Authenticate(username, password)
}

// operatorFromFlag authenticates the operator named by --user, if any.
func operatorFromFlag(cmd *cobra.Command, a *app.UpkeepApp) (sql.NullInt64, error) {
	user, err := signedIn(cmd, a)
	if err != nil || user == nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: user.ID, Valid: true}, nil
}

// requireAdministrator authenticates --user and fails unless it names an
// administrator.
func requireAdministrator(cmd *cobra.Command, a *app.UpkeepApp) (*model.User, error) {
	user, err := signedIn(cmd, a)
	if err != nil {
		return nil, err
	}
	if err := a.Service().Operators.RequireRole(user, model.RoleAdministrator); err != nil {
		return nil, err
	}
	return user, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(equipmentCmd)
	rootCmd.AddCommand(maintenanceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(backupCmd)
}
