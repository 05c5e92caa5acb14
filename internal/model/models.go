package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Equipment is a piece of equipment whose upkeep is tracked.
// The ID is assigned by the operator (asset tag, inventory number).
type Equipment struct {
	ID           string
	Name         string
	Brand        string
	Model        string
	Serial       string
	Location     string
	Description  string
	RegisteredAt time.Time
	CreatedBy    sql.NullInt64 // Foreign key to User
}

// MaintenanceRecord is the current maintenance entry for a piece of equipment.
type MaintenanceRecord struct {
	ID          string
	EquipmentID string    // Foreign key to Equipment
	Date        time.Time // Calendar date, midnight UTC
	Type        MaintenanceType
	Status      MaintenanceStatus
	Provider    string
	Cost        decimal.Decimal
	Notes       string
	CreatedBy   sql.NullInt64 // Foreign key to User
	RecordedAt  time.Time
}

// HistoryRecord is an immutable snapshot of a MaintenanceRecord taken when it
// was superseded. The snapshot keeps the original RecordedAt, which doubles as
// its archive time.
type HistoryRecord struct {
	HistoryID   string
	OriginalID  string
	EquipmentID string
	Date        time.Time
	Type        MaintenanceType
	Status      MaintenanceStatus
	Provider    string
	Cost        decimal.Decimal
	Notes       string
	CreatedBy   sql.NullInt64
	RecordedAt  time.Time
}

// Snapshot copies r into a HistoryRecord with the given history ID.
func (r *MaintenanceRecord) Snapshot(historyID string) *HistoryRecord {
	return &HistoryRecord{
		HistoryID:   historyID,
		OriginalID:  r.ID,
		EquipmentID: r.EquipmentID,
		Date:        r.Date,
		Type:        r.Type,
		Status:      r.Status,
		Provider:    r.Provider,
		Cost:        r.Cost,
		Notes:       r.Notes,
		CreatedBy:   r.CreatedBy,
		RecordedAt:  r.RecordedAt,
	}
}

// Setting is a single key/value configuration pair stored in the database.
type Setting struct {
	Key   string
	Value string
}

// User is an operator who can be credited with creating records.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
}

// RecordFilter narrows a listing of current maintenance records.
// Zero-valued fields do not filter.
type RecordFilter struct {
	EquipmentID string
	Status      MaintenanceStatus
	Type        MaintenanceType
	From        time.Time // inclusive
	To          time.Time // exclusive
}

// RecordCursor marks a position in the (date desc, id desc) ordering of
// current records. Listing resumes strictly after it.
type RecordCursor struct {
	Date time.Time
	ID   string
}
