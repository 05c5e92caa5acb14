// Package report renders the maintenance summary PDF.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"upkeep/internal/model"
	"upkeep/internal/upkeep"
)

// Data is everything one report shows.
type Data struct {
	GeneratedAt time.Time
	Status      *upkeep.AlertStatus
	Records     []*model.MaintenanceRecord
	// EquipmentNames maps equipment IDs to display names. Missing IDs print as the ID.
	EquipmentNames map[string]string
	DateLayout     string
}

type column struct {
	title string
	width float64
	align string
	value func(r *model.MaintenanceRecord) string
}

// Write renders the report as PDF to w.
func Write(w io.Writer, d Data) error {
	layout := d.DateLayout
	if layout == "" {
		layout = model.ISODate
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Maintenance report", true)
	pdf.SetCreator("upkeep", true)
	pdf.SetCreationDate(d.GeneratedAt)
	pdf.AliasNbPages("")
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Maintenance report", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Generated "+d.GeneratedAt.Format(layout+" 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if s := d.Status; s != nil {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Alerts", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		lines := []string{
			fmt.Sprintf("Reminder day: %s (day %d of the month)", s.AlertDate.Format(layout), s.AlertDayOfMonth),
			fmt.Sprintf("Pre-warning: %s (%d days before month end)", s.PreWarnDate.Format(layout), s.PreWarningDays),
			fmt.Sprintf("Equipment without maintenance this month: %d", s.Gap),
		}
		for _, line := range lines {
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	name := func(id string) string {
		if n, ok := d.EquipmentNames[id]; ok && n != "" {
			return n
		}
		return id
	}
	columns := []column{
		{"Date", 25, "L", func(r *model.MaintenanceRecord) string { return r.Date.Format(layout) }},
		{"Equipment", 60, "L", func(r *model.MaintenanceRecord) string { return tr(name(r.EquipmentID)) }},
		{"Type", 28, "L", func(r *model.MaintenanceRecord) string { return string(r.Type) }},
		{"Status", 28, "L", func(r *model.MaintenanceRecord) string { return string(r.Status) }},
		{"Provider", 50, "L", func(r *model.MaintenanceRecord) string { return tr(r.Provider) }},
		{"Cost", 25, "R", func(r *model.MaintenanceRecord) string { return r.Cost.StringFixed(2) }},
		{"Record", 61, "L", func(r *model.MaintenanceRecord) string { return tr(r.ID) }},
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Current records (%d)", len(d.Records)), "", 1, "L", false, 0, "")

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(220, 220, 220)
		for _, c := range columns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, r := range d.Records {
		if pdf.GetY()+6 > pageHeight-bottom-15 {
			pdf.AddPage()
			header()
		}
		for _, c := range columns {
			pdf.CellFormat(c.width, 6, c.value(r), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
