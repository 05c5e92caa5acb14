package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"upkeep/internal/model"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage operators",
}

var userAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add an operator; prompts for the password",
	Long: `Add an operator. Needs --user naming an administrator, except for the
first operator, which bootstraps an empty database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")

		a, err := newCheckedApp("AddUser")
		if err != nil {
			return err
		}
		defer a.Close()

		existing, err := a.Service().Operators.List()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			if _, err := requireAdministrator(cmd, a); err != nil {
				return err
			}
		}

		password, err := readNewSecret("Password: ")
		if err != nil {
			return err
		}
		u, err := a.Service().Operators.Add(args[0], password, model.Role(role))
		if err != nil {
			return err
		}
		fmt.Printf("Operator %s added as %s\n", u.Username, u.Role)
		return nil
	},
}

var userEditCmd = &cobra.Command{
	Use:   "edit NAME",
	Short: "Rename an operator, change its role or reset its password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("EditUser")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := requireAdministrator(cmd, a); err != nil {
			return err
		}

		ops := a.Service().Operators
		name := args[0]
		if cmd.Flags().Changed("name") || cmd.Flags().Changed("role") {
			current, err := ops.Get(name)
			if err != nil {
				return err
			}
			newName, _ := cmd.Flags().GetString("name")
			role := current.Role
			if cmd.Flags().Changed("role") {
				r, _ := cmd.Flags().GetString("role")
				role = model.Role(r)
			}
			u, err := ops.Update(name, newName, role)
			if err != nil {
				return err
			}
			name = u.Username
		}

		if reset, _ := cmd.Flags().GetBool("password"); reset {
			password, err := readNewSecret(fmt.Sprintf("New password for %s: ", name))
			if err != nil {
				return err
			}
			if err := ops.SetPassword(name, password); err != nil {
				return err
			}
		}

		fmt.Printf("Operator %s updated\n", name)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List operators",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ListUsers")
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.Service().Operators.List()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No operators.")
			return nil
		}
		for _, u := range users {
			fmt.Printf("%-20s  %s\n", u.Username, u.Role)
		}
		return nil
	},
}

var userRmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Remove an operator; records they created are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("RemoveUser")
		if err != nil {
			return err
		}
		defer a.Close()

		actor, err := signedIn(cmd, a)
		if err != nil {
			return err
		}
		if err := a.Service().Operators.Remove(actor, args[0]); err != nil {
			return err
		}
		fmt.Printf("Operator %s removed\n", args[0])
		return nil
	},
}

func init() {
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userEditCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userRmCmd)

	userAddCmd.Flags().String("role", string(model.RoleTechnician), "administrator or technician")
	userEditCmd.Flags().String("name", "", "New username")
	userEditCmd.Flags().String("role", "", "administrator or technician")
	userEditCmd.Flags().Bool("password", false, "Prompt for a new password")
	for _, c := range []*cobra.Command{userAddCmd, userEditCmd, userRmCmd} {
		c.Flags().String("user", "", "Administrator running the command; prompts for the password")
	}
}
