package upkeep

import (
	"database/sql"
	"fmt"
	"slices"

	"upkeep/internal/model"
)

// Importer loads rows produced by the spreadsheet collaborator. Rejected rows
// are skipped and only the number of added rows is reported.
type Importer struct {
	equipment *EquipmentRegistry
	ledger    *MaintenanceLedger
	idgen     IDGenerator
	logger    Logger
}

func NewImporter(equipment *EquipmentRegistry, ledger *MaintenanceLedger, idgen IDGenerator, logger Logger) *Importer {
	return &Importer{equipment: equipment, ledger: ledger, idgen: idgen, logger: logger}
}

// ImportEquipment adds each row that has an ID and a name and whose ID is new.
func (i *Importer) ImportEquipment(rows []*model.Equipment, createdBy sql.NullInt64) (int, error) {
	added := 0
	for _, row := range rows {
		err := i.equipment.Add(row, createdBy)
		if IsRejection(err) {
			i.logger.Debug("equipment row skipped", "id", row.ID, "reason", err.Error())
			continue
		}
		if err != nil {
			return added, fmt.Errorf("importing equipment: %w", err)
		}
		added++
	}

	i.logger.Info("equipment imported", "rows", len(rows), "added", added)
	return added, nil
}

// ImportRecords registers each row through the ledger, oldest date first, so
// the newest imported row of each equipment ends up as its current record.
// Rows without an ID get a generated "IMP-" ID.
func (i *Importer) ImportRecords(rows []*model.MaintenanceRecord, createdBy sql.NullInt64) (int, error) {
	ordered := slices.Clone(rows)
	slices.SortStableFunc(ordered, func(a, b *model.MaintenanceRecord) int {
		return a.Date.Compare(b.Date)
	})

	added := 0
	for _, in := range ordered {
		row := *in
		if row.ID == "" {
			row.ID = "IMP-" + i.idgen.New()
		}
		row.CreatedBy = createdBy

		_, err := i.ledger.AddRecord(&row)
		if IsRejection(err) {
			i.logger.Debug("maintenance row skipped", "id", row.ID, "reason", err.Error())
			continue
		}
		if err != nil {
			return added, fmt.Errorf("importing maintenance records: %w", err)
		}
		added++
	}

	i.logger.Info("maintenance records imported", "rows", len(rows), "added", added)
	return added, nil
}
