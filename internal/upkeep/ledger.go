package upkeep

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"upkeep/internal/model"
)

// listPageSize is how many current records ListCurrent fetches per query.
const listPageSize = 100

// MaintenanceLedger owns the current maintenance records. Registering a new
// record for a piece of equipment moves the record it replaces into history.
type MaintenanceLedger struct {
	db     Database
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

func NewMaintenanceLedger(db Database, logger Logger, clock Clock, idgen IDGenerator) *MaintenanceLedger {
	return &MaintenanceLedger{db: db, logger: logger, clock: clock, idgen: idgen}
}

// RecordPatch lists the fields EditRecord may change. Nil fields are left as is.
type RecordPatch struct {
	EquipmentID *string
	Date        *time.Time
	Type        *model.MaintenanceType
	Status      *model.MaintenanceStatus
	Provider    *string
	Cost        *decimal.Decimal
	Notes       *string
}

// AddRecord validates record, archives the equipment's current record(s) and
// inserts a copy of record, all in one transaction. An empty ID is generated
// and an empty Status defaults to Pending. The caller's record is left as
// given. Returns the new record's ID.
func (l *MaintenanceLedger) AddRecord(record *model.MaintenanceRecord) (string, error) {
	r := *record
	r.ID = strings.TrimSpace(r.ID)
	r.EquipmentID = strings.TrimSpace(r.EquipmentID)
	if r.Status == "" {
		r.Status = model.StatusPending
	}
	if err := validateRecord(&r); err != nil {
		return "", err
	}

	if r.ID == "" {
		r.ID = l.idgen.New()
	}
	r.Date = model.DateOf(r.Date)
	r.RecordedAt = l.clock.Now()

	archived, err := l.db.SupersedeMaintenanceRecord(&r, l.idgen)
	if err != nil {
		return "", fmt.Errorf("adding maintenance record: %w", err)
	}

	l.logger.Info("maintenance record added",
		"id", r.ID,
		"equipment", r.EquipmentID,
		"date", r.Date.Format(model.ISODate),
		"archived", len(archived),
	)
	return r.ID, nil
}

// EditRecord updates a current record in place. Edits never archive.
func (l *MaintenanceLedger) EditRecord(id string, patch RecordPatch) (*model.MaintenanceRecord, error) {
	record, err := l.Get(id)
	if err != nil {
		return nil, err
	}

	if patch.EquipmentID != nil {
		record.EquipmentID = strings.TrimSpace(*patch.EquipmentID)
	}
	if patch.Date != nil {
		record.Date = model.DateOf(*patch.Date)
	}
	if patch.Type != nil {
		record.Type = *patch.Type
	}
	if patch.Status != nil {
		record.Status = *patch.Status
	}
	if patch.Provider != nil {
		record.Provider = *patch.Provider
	}
	if patch.Cost != nil {
		record.Cost = *patch.Cost
	}
	if patch.Notes != nil {
		record.Notes = *patch.Notes
	}

	if err := validateRecord(record); err != nil {
		return nil, err
	}
	if err := l.db.UpdateMaintenanceRecord(record); err != nil {
		return nil, fmt.Errorf("editing maintenance record: %w", err)
	}

	l.logger.Info("maintenance record edited", "id", id)
	return record, nil
}

// SetStatus changes only the status of a current record.
func (l *MaintenanceLedger) SetStatus(id string, status model.MaintenanceStatus) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("must be %s or %s", model.StatusPending, model.StatusCompleted)}
	}
	if err := l.db.UpdateMaintenanceStatus(id, status); err != nil {
		return fmt.Errorf("setting status: %w", err)
	}
	l.logger.Info("maintenance status changed", "id", id, "status", string(status))
	return nil
}

// Get returns the current record with the given ID, or *NotFoundError.
func (l *MaintenanceLedger) Get(id string) (*model.MaintenanceRecord, error) {
	record, err := l.db.FindMaintenanceRecord(id)
	if err != nil {
		return nil, fmt.Errorf("finding maintenance record: %w", err)
	}
	if record == nil {
		return nil, &NotFoundError{Entity: "maintenance record", ID: id}
	}
	return record, nil
}

// ListCurrent returns the current records matching filter, ordered by date
// desc then ID desc. Records are fetched page by page as the sequence is
// consumed, and every range over the sequence starts a fresh listing.
// A storage error is yielded once as the final element.
func (l *MaintenanceLedger) ListCurrent(filter model.RecordFilter) iter.Seq2[*model.MaintenanceRecord, error] {
	return func(yield func(*model.MaintenanceRecord, error) bool) {
		var after *model.RecordCursor
		for {
			page, err := l.db.ListMaintenanceRecords(filter, after, listPageSize)
			if err != nil {
				yield(nil, fmt.Errorf("listing maintenance records: %w", err))
				return
			}
			for _, r := range page {
				if !yield(r, nil) {
					return
				}
			}
			if len(page) < listPageSize {
				return
			}
			last := page[len(page)-1]
			after = &model.RecordCursor{Date: last.Date, ID: last.ID}
		}
	}
}

// CollectCurrent drains ListCurrent into a slice.
func (l *MaintenanceLedger) CollectCurrent(filter model.RecordFilter) ([]*model.MaintenanceRecord, error) {
	var out []*model.MaintenanceRecord
	for r, err := range l.ListCurrent(filter) {
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func validateRecord(r *model.MaintenanceRecord) error {
	if r.EquipmentID == "" {
		return &ValidationError{Field: "equipment_id", Reason: "required"}
	}
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if !r.Type.Valid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("must be %s or %s, got %q", model.TypePreventive, model.TypeCorrective, r.Type)}
	}
	if !r.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("must be %s or %s, got %q", model.StatusPending, model.StatusCompleted, r.Status)}
	}
	if r.Cost.IsNegative() {
		return &ValidationError{Field: "cost", Reason: "must not be negative"}
	}
	return nil
}
