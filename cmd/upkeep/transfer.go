package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"upkeep/internal/model"
	"upkeep/internal/report"
	"upkeep/internal/sheet"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load equipment or maintenance records from a spreadsheet",
}

var importEquipmentCmd = &cobra.Command{
	Use:   "equipment FILE",
	Short: "Import equipment (columns: id, name, brand, model, serial, location, description)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ImportEquipment")
		if err != nil {
			return err
		}
		defer a.Close()

		createdBy, err := operatorFromFlag(cmd, a)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rows, skipped, err := sheet.ReadEquipment(f)
		if err != nil {
			return err
		}
		added, err := a.Service().Importer.ImportEquipment(rows, createdBy)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d equipment (%d rows unreadable, %d rejected)\n", added, skipped, len(rows)-added)
		return nil
	},
}

var importMaintenanceCmd = &cobra.Command{
	Use:   "maintenance FILE",
	Short: "Import maintenance records (columns: id, equipment_id, date, type, status, provider, cost, notes)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ImportRecords")
		if err != nil {
			return err
		}
		defer a.Close()

		createdBy, err := operatorFromFlag(cmd, a)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rows, skipped, err := sheet.ReadMaintenance(f)
		if err != nil {
			return err
		}
		added, err := a.Service().Importer.ImportRecords(rows, createdBy)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d maintenance records (%d rows unreadable, %d rejected)\n", added, skipped, len(rows)-added)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write equipment, current records or history to a spreadsheet",
}

// writeFile creates path and hands it to write. The file is removed when write fails.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

var exportEquipmentCmd = &cobra.Command{
	Use:   "equipment FILE",
	Short: "Export the equipment registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ExportEquipment")
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.Service().Equipment.List()
		if err != nil {
			return err
		}
		if err := writeFile(args[0], func(w io.Writer) error { return sheet.WriteEquipment(w, list) }); err != nil {
			return fmt.Errorf("exporting equipment: %w", err)
		}
		fmt.Printf("Exported %d equipment to %s\n", len(list), args[0])
		return nil
	},
}

var exportMaintenanceCmd = &cobra.Command{
	Use:   "maintenance FILE",
	Short: "Export current maintenance records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ExportRecords")
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.Service().Ledger.CollectCurrent(model.RecordFilter{})
		if err != nil {
			return err
		}
		err = writeFile(args[0], func(w io.Writer) error {
			return sheet.WriteMaintenance(w, records, a.DateLayout())
		})
		if err != nil {
			return fmt.Errorf("exporting maintenance records: %w", err)
		}
		fmt.Printf("Exported %d maintenance records to %s\n", len(records), args[0])
		return nil
	},
}

var exportHistoryCmd = &cobra.Command{
	Use:   "history FILE",
	Short: "Export archived maintenance records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("ExportHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.Service().History.List()
		if err != nil {
			return err
		}
		err = writeFile(args[0], func(w io.Writer) error {
			return sheet.WriteHistory(w, records, a.DateLayout())
		})
		if err != nil {
			return fmt.Errorf("exporting history: %w", err)
		}
		fmt.Printf("Exported %d archived records to %s\n", len(records), args[0])
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report FILE",
	Short: "Write a PDF summary of alerts and current maintenance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCheckedApp("Report")
		if err != nil {
			return err
		}
		defer a.Close()

		svc := a.Service()
		status, err := svc.Alerts.Status()
		if err != nil {
			return err
		}
		records, err := svc.Ledger.CollectCurrent(model.RecordFilter{})
		if err != nil {
			return err
		}
		list, err := svc.Equipment.List()
		if err != nil {
			return err
		}
		names := make(map[string]string, len(list))
		for _, e := range list {
			names[e.ID] = e.Name
		}

		data := report.Data{
			GeneratedAt:    time.Now(),
			Status:         status,
			Records:        records,
			EquipmentNames: names,
			DateLayout:     a.DateLayout(),
		}
		if err := writeFile(args[0], func(w io.Writer) error { return report.Write(w, data) }); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", args[0])
		return nil
	},
}

func init() {
	importCmd.AddCommand(importEquipmentCmd)
	importCmd.AddCommand(importMaintenanceCmd)
	for _, c := range []*cobra.Command{importEquipmentCmd, importMaintenanceCmd} {
		c.Flags().String("user", "", "Operator to credit; prompts for the password")
	}

	exportCmd.AddCommand(exportEquipmentCmd)
	exportCmd.AddCommand(exportMaintenanceCmd)
	exportCmd.AddCommand(exportHistoryCmd)
}
