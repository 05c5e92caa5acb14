package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"upkeep/internal/app"
	"upkeep/internal/model"
	"upkeep/internal/upkeep"
)

var maintenanceCmd = &cobra.Command{
	Use:     "maintenance",
	Aliases: []string{"mnt"},
	Short:   "Record and review maintenance",
}

var maintenanceAddCmd = &cobra.Command{
	Use:   "add EQUIPMENT_ID DATE",
	Short: "Register maintenance; the equipment's previous record moves to history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("AddRecord")
		if err != nil {
			return err
		}
		defer a.Close()

		date, err := upkeep.ParseDate(args[1])
		if err != nil {
			return err
		}
		createdBy, err := operatorFromFlag(cmd, a)
		if err != nil {
			return err
		}

		r := &model.MaintenanceRecord{EquipmentID: args[0], Date: date, CreatedBy: createdBy}
		r.ID, _ = cmd.Flags().GetString("id")
		r.Provider, _ = cmd.Flags().GetString("provider")
		r.Notes, _ = cmd.Flags().GetString("notes")
		typ, _ := cmd.Flags().GetString("type")
		r.Type = maintenanceType(typ)
		status, _ := cmd.Flags().GetString("status")
		r.Status = maintenanceStatus(status)
		if r.Cost, err = costFlag(cmd); err != nil {
			return err
		}

		id, err := a.Service().Ledger.AddRecord(r)
		if err != nil {
			return err
		}
		fmt.Printf("Maintenance record %s registered for %s on %s\n", id, r.EquipmentID, a.FormatDate(r.Date))
		return nil
	},
}

var maintenanceEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Correct a current record in place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("EditRecord")
		if err != nil {
			return err
		}
		defer a.Close()

		var patch upkeep.RecordPatch
		flags := cmd.Flags()
		if flags.Changed("equipment") {
			v, _ := flags.GetString("equipment")
			patch.EquipmentID = &v
		}
		if flags.Changed("date") {
			v, _ := flags.GetString("date")
			d, err := upkeep.ParseDate(v)
			if err != nil {
				return err
			}
			patch.Date = &d
		}
		if flags.Changed("type") {
			v, _ := flags.GetString("type")
			t := maintenanceType(v)
			patch.Type = &t
		}
		if flags.Changed("status") {
			v, _ := flags.GetString("status")
			s := maintenanceStatus(v)
			patch.Status = &s
		}
		if flags.Changed("provider") {
			v, _ := flags.GetString("provider")
			patch.Provider = &v
		}
		if flags.Changed("notes") {
			v, _ := flags.GetString("notes")
			patch.Notes = &v
		}
		if flags.Changed("cost") {
			c, err := costFlag(cmd)
			if err != nil {
				return err
			}
			patch.Cost = &c
		}

		r, err := a.Service().Ledger.EditRecord(args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("Maintenance record %s updated\n", r.ID)
		return nil
	},
}

func setStatusCmd(use, short string, status model.MaintenanceStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newCheckedApp("SetStatus")
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Service().Ledger.SetStatus(args[0], status); err != nil {
				return err
			}
			fmt.Printf("Maintenance record %s is now %s\n", args[0], statusWord(string(status)))
			return nil
		},
	}
}

var (
	maintenanceDoneCmd    = setStatusCmd("done", "Mark a record completed", model.StatusCompleted)
	maintenancePendingCmd = setStatusCmd("pending", "Mark a record pending", model.StatusPending)
)

var maintenanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List current maintenance records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ListCurrent")
		if err != nil {
			return err
		}
		defer a.Close()

		filter, err := recordFilter(cmd)
		if err != nil {
			return err
		}

		n := 0
		for r, err := range a.Service().Ledger.ListCurrent(filter) {
			if err != nil {
				return err
			}
			printRecord(a, r)
			n++
		}
		if n == 0 {
			fmt.Println("No maintenance records.")
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived maintenance records",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ListHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		equipmentID, _ := cmd.Flags().GetString("equipment")
		records, err := a.Service().History.ListForEquipment(equipmentID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No archived records.")
			return nil
		}

		for _, h := range records {
			fmt.Printf("%-10s  %-12s  %-10s  %-10s  %-20s  %10s  (was %s, archived %s)\n",
				a.FormatDate(h.Date), h.EquipmentID, h.Type, statusWord(string(h.Status)),
				h.Provider, h.Cost.StringFixed(2), h.OriginalID,
				h.RecordedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func printRecord(a *app.UpkeepApp, r *model.MaintenanceRecord) {
	fmt.Printf("%-36s  %-10s  %-12s  %-10s  %-10s  %-20s  %10s\n",
		r.ID, a.FormatDate(r.Date), r.EquipmentID, r.Type, statusWord(string(r.Status)),
		r.Provider, r.Cost.StringFixed(2))
}

func recordFilter(cmd *cobra.Command) (model.RecordFilter, error) {
	var f model.RecordFilter
	f.EquipmentID, _ = cmd.Flags().GetString("equipment")
	if s, _ := cmd.Flags().GetString("status"); s != "" {
		f.Status = maintenanceStatus(s)
		if !f.Status.Valid() {
			return f, &upkeep.ValidationError{Field: "status", Reason: "unknown status " + s}
		}
	}
	return f, nil
}

// maintenanceType accepts any letter case. Unknown values pass through so the
// ledger reports them.
func maintenanceType(s string) model.MaintenanceType {
	for _, t := range []model.MaintenanceType{model.TypePreventive, model.TypeCorrective} {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return model.MaintenanceType(s)
}

func maintenanceStatus(s string) model.MaintenanceStatus {
	for _, st := range []model.MaintenanceStatus{model.StatusPending, model.StatusCompleted} {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return model.MaintenanceStatus(s)
}

func costFlag(cmd *cobra.Command) (decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString("cost")
	if s == "" {
		return decimal.Zero, nil
	}
	c, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &upkeep.ValidationError{Field: "cost", Reason: "not a number: " + s}
	}
	return c, nil
}

func init() {
	maintenanceCmd.AddCommand(maintenanceAddCmd)
	maintenanceCmd.AddCommand(maintenanceEditCmd)
	maintenanceCmd.AddCommand(maintenanceDoneCmd)
	maintenanceCmd.AddCommand(maintenancePendingCmd)
	maintenanceCmd.AddCommand(maintenanceListCmd)

	maintenanceAddCmd.Flags().String("id", "", "Record ID (generated when empty)")
	maintenanceAddCmd.Flags().String("type", string(model.TypePreventive), "Preventive or Corrective")
	maintenanceAddCmd.Flags().String("status", string(model.StatusPending), "Pending or Completed")
	maintenanceAddCmd.Flags().String("user", "", "Operator to credit; prompts for the password")

	maintenanceEditCmd.Flags().String("equipment", "", "Move the record to other equipment")
	maintenanceEditCmd.Flags().String("date", "", "Date (YYYY-MM-DD or DD-MM-YYYY)")
	maintenanceEditCmd.Flags().String("type", "", "Preventive or Corrective")
	maintenanceEditCmd.Flags().String("status", "", "Pending or Completed")

	for _, c := range []*cobra.Command{maintenanceAddCmd, maintenanceEditCmd} {
		c.Flags().String("provider", "", "Who did the work")
		c.Flags().String("cost", "", "Cost, e.g. 125.50")
		c.Flags().String("notes", "", "Free text")
	}

	maintenanceListCmd.Flags().String("equipment", "", "Only this equipment")
	maintenanceListCmd.Flags().String("status", "", "Only Pending or Completed")

	historyCmd.Flags().String("equipment", "", "Only this equipment")
}
