package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write an encrypted database snapshot to the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.Service().Backups.Create()
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Snapshot %s stored\n", name)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ListBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.Service().Backups.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No snapshots stored.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore NAME PATH",
	Short: "Decrypt a snapshot into a new database file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readSecret("Passphrase: ")
		if err != nil {
			return err
		}
		if err := a.Service().Backups.Restore(args[0], passphrase, args[1]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Snapshot %s restored to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}
