package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"upkeep/internal/model"
)

var (
	equipmentHeader   = []string{"id", "name", "brand", "model", "serial", "location", "description"}
	maintenanceHeader = []string{"id", "equipment_id", "date", "type", "status", "provider", "cost", "notes"}
	historyHeader     = []string{"history_id", "original_id", "equipment_id", "date", "type", "status", "provider", "cost", "notes", "recorded_at"}
)

// WriteEquipment writes one row per equipment under the import header.
func WriteEquipment(w io.Writer, list []*model.Equipment) error {
	rows := make([][]any, 0, len(list))
	for _, e := range list {
		rows = append(rows, []any{e.ID, e.Name, e.Brand, e.Model, e.Serial, e.Location, e.Description})
	}
	return writeSheet(w, "Equipment", equipmentHeader, rows)
}

// WriteMaintenance writes current records with dates in dateLayout. The
// output can be imported again.
func WriteMaintenance(w io.Writer, records []*model.MaintenanceRecord, dateLayout string) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ID, r.EquipmentID, r.Date.Format(dateLayout), string(r.Type), string(r.Status),
			r.Provider, r.Cost.String(), r.Notes,
		})
	}
	return writeSheet(w, "Maintenance", maintenanceHeader, rows)
}

// WriteHistory writes archived snapshots with dates in dateLayout.
func WriteHistory(w io.Writer, records []*model.HistoryRecord, dateLayout string) error {
	rows := make([][]any, 0, len(records))
	for _, h := range records {
		rows = append(rows, []any{
			h.HistoryID, h.OriginalID, h.EquipmentID, h.Date.Format(dateLayout), string(h.Type), string(h.Status),
			h.Provider, h.Cost.String(), h.Notes, h.RecordedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return writeSheet(w, "History", historyHeader, rows)
}

func writeSheet(w io.Writer, name string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(name, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if len(rows) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(header), len(rows)+1)
		if err := f.AutoFilter(name, "A1:"+lastCell, nil); err != nil {
			return fmt.Errorf("adding filter: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
