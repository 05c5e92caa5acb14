package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"upkeep/internal/app"
	"upkeep/internal/config"
	"upkeep/internal/encryption"
	"upkeep/internal/vault"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration, encryption keys and the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])

		if _, err := vault.NewVaultFromConfig(cfg.Backup.Vault); err != nil {
			return fmt.Errorf("creating vault: %w", err)
		}

		enc, err := encryption.NewEncryptorFromConfig(cfg.Backup.Encryption)
		if err != nil {
			return fmt.Errorf("creating encryptor: %w", err)
		}
		if !enc.IsConfigured() {
			passphrase, err := readNewSecret("Passphrase for the backup key: ")
			if err != nil {
				return err
			}
			if err := enc.Setup(passphrase); err != nil {
				return fmt.Errorf("creating encryption keys: %w", err)
			}
			fmt.Printf("Encryption keys written to %s\n", cfg.Backup.Encryption.PublicKeyPath)
		}

		if err := app.Migrate(cfg); err != nil {
			return err
		}

		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:       %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:        %s\n", cfg.LogDir)
		fmt.Printf("Log Level:      %s\n", cfg.LogLevel)
		fmt.Printf("Database:       %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Date Format:    %s\n", cfg.Display.DateFormat)
		fmt.Printf("Watch Schedule: %s\n", cfg.Alerts.WatchSchedule)
		fmt.Printf("Vault:          %s (%s) %s\n", cfg.Backup.Vault.Name, cfg.Backup.Vault.Type, cfg.Backup.Vault.FSVaultRoot)
		fmt.Printf("Public Key:     %s\n", cfg.Backup.Encryption.PublicKeyPath)
		return nil
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.Migrate(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}
