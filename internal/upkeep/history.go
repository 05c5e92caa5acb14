package upkeep

import (
	"fmt"

	"upkeep/internal/model"
)

// HistoryArchive is the read side of the append-only history log.
// Snapshots are appended only by MaintenanceLedger.AddRecord, inside the same
// transaction that removes the superseded record.
type HistoryArchive struct {
	db Database
}

func NewHistoryArchive(db Database) *HistoryArchive {
	return &HistoryArchive{db: db}
}

// List returns every snapshot ordered by date desc then history ID desc.
func (a *HistoryArchive) List() ([]*model.HistoryRecord, error) {
	return a.ListForEquipment("")
}

// ListForEquipment returns the snapshots of one piece of equipment.
func (a *HistoryArchive) ListForEquipment(equipmentID string) ([]*model.HistoryRecord, error) {
	records, err := a.db.ListHistoryRecords(equipmentID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return records, nil
}
