package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"upkeep/internal/model"
)

var equipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "Manage the equipment registry",
}

var equipmentAddCmd = &cobra.Command{
	Use:   "add ID NAME",
	Short: "Register a piece of equipment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("AddEquipment")
		if err != nil {
			return err
		}
		defer a.Close()

		createdBy, err := operatorFromFlag(cmd, a)
		if err != nil {
			return err
		}

		e := &model.Equipment{ID: args[0], Name: args[1]}
		e.Brand, _ = cmd.Flags().GetString("brand")
		e.Model, _ = cmd.Flags().GetString("model")
		e.Serial, _ = cmd.Flags().GetString("serial")
		e.Location, _ = cmd.Flags().GetString("location")
		e.Description, _ = cmd.Flags().GetString("description")

		if err := a.Service().Equipment.Add(e, createdBy); err != nil {
			return err
		}
		fmt.Printf("Equipment %s registered\n", e.ID)
		return nil
	},
}

var equipmentEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change equipment details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("EditEquipment")
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.Service().Equipment.Get(args[0])
		if err != nil {
			return err
		}

		fields := map[string]*string{
			"name":        &e.Name,
			"brand":       &e.Brand,
			"model":       &e.Model,
			"serial":      &e.Serial,
			"location":    &e.Location,
			"description": &e.Description,
		}
		for flag, dst := range fields {
			if cmd.Flags().Changed(flag) {
				*dst, _ = cmd.Flags().GetString(flag)
			}
		}

		if err := a.Service().Equipment.Update(e); err != nil {
			return err
		}
		fmt.Printf("Equipment %s updated\n", e.ID)
		return nil
	},
}

var equipmentRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Remove equipment and its current record; history is kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("RemoveEquipment")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := requireAdministrator(cmd, a); err != nil {
			return err
		}
		if err := a.Service().Equipment.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Equipment %s removed\n", args[0])
		return nil
	},
}

var equipmentRenameCmd = &cobra.Command{
	Use:   "rename OLD NEW",
	Short: "Change an equipment ID; the current record follows, history keeps OLD",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("RenameEquipment")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := requireAdministrator(cmd, a); err != nil {
			return err
		}
		if err := a.Service().Equipment.Rename(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Equipment %s is now %s\n", args[0], args[1])
		return nil
	},
}

var equipmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered equipment",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ListEquipment")
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.Service().Equipment.List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No equipment registered.")
			return nil
		}

		for _, e := range list {
			fmt.Printf("%-12s  %-30s  %-12s  %-12s  %-14s  %s\n",
				e.ID, e.Name, e.Brand, e.Model, e.Serial, e.Location)
		}
		return nil
	},
}

func init() {
	equipmentCmd.AddCommand(equipmentAddCmd)
	equipmentCmd.AddCommand(equipmentEditCmd)
	equipmentCmd.AddCommand(equipmentRenameCmd)
	equipmentCmd.AddCommand(equipmentRmCmd)
	equipmentCmd.AddCommand(equipmentListCmd)

	equipmentEditCmd.Flags().String("name", "", "Display name")
	for _, c := range []*cobra.Command{equipmentAddCmd, equipmentEditCmd} {
		c.Flags().String("brand", "", "Manufacturer")
		c.Flags().String("model", "", "Model")
		c.Flags().String("serial", "", "Serial number")
		c.Flags().String("location", "", "Where the equipment is")
		c.Flags().String("description", "", "Free text")
	}
	equipmentAddCmd.Flags().String("user", "", "Operator to credit; prompts for the password")
	for _, c := range []*cobra.Command{equipmentRenameCmd, equipmentRmCmd} {
		c.Flags().String("user", "", "Administrator running the command; prompts for the password")
	}
}
