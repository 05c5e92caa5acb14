// Package sheet reads and writes the xlsx workbooks used for bulk import
// and export. Only the first worksheet of an imported workbook is read.
package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"upkeep/internal/model"
	"upkeep/internal/upkeep"
)

// table is the first worksheet as header-addressed rows.
type table struct {
	columns map[string]int
	rows    [][]string
	// text[i][column] is set when that cell of rows[i] is stored as a
	// string. Only the columns passed to readTable are recorded.
	text []map[string]bool
}

// readTable reads the first worksheet. For each column named in typed it
// also records which cells hold strings rather than numbers or dates.
func readTable(r io.Reader, typed ...string) (*table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	// Raw values keep date cells as serial numbers instead of whatever
	// display format the author picked.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &table{columns: map[string]int{}}, nil
	}

	t := &table{columns: make(map[string]int, len(rows[0]))}
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := t.columns[key]; key != "" && !dup {
			t.columns[key] = i
		}
	}
	// GetRows keeps empty rows up to the last used one, so rows[n] is
	// sheet row n+1.
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		text, err := t.textCells(f, sheet, n+2, row, typed)
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, row)
		t.text = append(t.text, text)
	}
	return t, nil
}

func (t *table) textCells(f *excelize.File, sheet string, rowNum int, row []string, columns []string) (map[string]bool, error) {
	text := map[string]bool{}
	for _, column := range columns {
		i, ok := t.columns[column]
		if !ok || i >= len(row) {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return nil, err
		}
		typ, err := f.GetCellType(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("reading cell %s: %w", cell, err)
		}
		switch typ {
		case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
			text[column] = true
		}
	}
	return text, nil
}

// get returns the trimmed cell of row under column, or "" if either is missing.
func (t *table) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadEquipment reads equipment rows. Rows without an id or a name are
// dropped and counted in skipped.
func ReadEquipment(r io.Reader) (rows []*model.Equipment, skipped int, err error) {
	t, err := readTable(r)
	if err != nil {
		return nil, 0, err
	}

	for _, row := range t.rows {
		e := &model.Equipment{
			ID:          t.get(row, "id"),
			Name:        t.get(row, "name"),
			Brand:       t.get(row, "brand"),
			Model:       t.get(row, "model"),
			Serial:      t.get(row, "serial"),
			Location:    t.get(row, "location"),
			Description: t.get(row, "description"),
		}
		if e.ID == "" || e.Name == "" {
			skipped++
			continue
		}
		rows = append(rows, e)
	}
	return rows, skipped, nil
}

// ReadMaintenance reads maintenance rows. Rows without an equipment_id or
// with a missing or unreadable date are dropped and counted in skipped.
// Unknown types and statuses fall back to Preventive and Pending, and a
// cost that is not a non-negative number becomes 0. The id may be blank.
func ReadMaintenance(r io.Reader) (rows []*model.MaintenanceRecord, skipped int, err error) {
	t, err := readTable(r, "date")
	if err != nil {
		return nil, 0, err
	}

	for i, row := range t.rows {
		equipmentID := t.get(row, "equipment_id")
		if equipmentID == "" {
			skipped++
			continue
		}
		d, ok := parseCellDate(t.get(row, "date"), t.text[i]["date"])
		if !ok {
			skipped++
			continue
		}

		rows = append(rows, &model.MaintenanceRecord{
			ID:          t.get(row, "id"),
			EquipmentID: equipmentID,
			Date:        d,
			Type:        parseType(t.get(row, "type")),
			Status:      parseStatus(t.get(row, "status")),
			Provider:    t.get(row, "provider"),
			Cost:        parseCost(t.get(row, "cost")),
			Notes:       t.get(row, "notes"),
		})
	}
	return rows, skipped, nil
}

// parseCellDate accepts the two textual forms, and serial numbers from cells
// stored as numbers or dates. Digits typed as text are not a date.
func parseCellDate(s string, text bool) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if d, err := upkeep.ParseDate(s); err == nil {
		return d, true
	}
	if text {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < 1 {
		return time.Time{}, false
	}
	d, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return model.DateOf(d), true
}

func parseType(s string) model.MaintenanceType {
	for _, t := range []model.MaintenanceType{model.TypePreventive, model.TypeCorrective} {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return model.TypePreventive
}

func parseStatus(s string) model.MaintenanceStatus {
	for _, st := range []model.MaintenanceStatus{model.StatusPending, model.StatusCompleted} {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return model.StatusPending
}

func parseCost(s string) decimal.Decimal {
	c, err := decimal.NewFromString(s)
	if err != nil || c.IsNegative() {
		return decimal.Zero
	}
	return c
}
