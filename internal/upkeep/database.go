package upkeep

import (
	"time"

	"upkeep/internal/model"
)

// Database provides the storage operations the core components need.
// Multi-step writes are atomic: either every step lands or none does.
// Lookups return (nil, nil) when the row does not exist.
type Database interface {
	// Equipment operations

	// FindEquipment returns the equipment with the given ID.
	FindEquipment(id string) (*model.Equipment, error)

	// CreateEquipment inserts new equipment. Returns *ConflictError if the ID is taken.
	CreateEquipment(equipment *model.Equipment) error

	// UpdateEquipment overwrites the descriptive fields. Returns *NotFoundError if absent.
	UpdateEquipment(equipment *model.Equipment) error

	// RenameEquipment changes an equipment ID. Current records move with it,
	// history keeps the old ID. Returns *NotFoundError if oldID is absent and
	// *ConflictError if newID is taken.
	RenameEquipment(oldID, newID string) error

	// DeleteEquipment removes equipment and its current maintenance records.
	// History snapshots are kept. Returns *NotFoundError if absent.
	DeleteEquipment(id string) error

	// ListEquipment returns all equipment ordered by name, then ID.
	ListEquipment() ([]*model.Equipment, error)

	// CountEquipment returns the number of registered equipment.
	CountEquipment() (int, error)

	// Maintenance operations

	// FindMaintenanceRecord returns the current record with the given ID.
	FindMaintenanceRecord(id string) (*model.MaintenanceRecord, error)

	// SupersedeMaintenanceRecord, in one transaction, moves every current record
	// of record.EquipmentID into history (newest first, each under a fresh ID
	// from idgen) and inserts record. It returns the snapshots written.
	// Returns *ForeignKeyError if the equipment or the creator is absent and
	// *ConflictError if record.ID is already used.
	SupersedeMaintenanceRecord(record *model.MaintenanceRecord, idgen IDGenerator) ([]*model.HistoryRecord, error)

	// UpdateMaintenanceRecord overwrites the mutable fields of a current record.
	// Returns *NotFoundError, *ForeignKeyError, or *ConflictError when the new
	// equipment already has a current record.
	UpdateMaintenanceRecord(record *model.MaintenanceRecord) error

	// UpdateMaintenanceStatus changes only the status. Returns *NotFoundError if absent.
	UpdateMaintenanceStatus(id string, status model.MaintenanceStatus) error

	// ListMaintenanceRecords returns up to limit current records matching filter,
	// ordered by date desc then ID desc, starting strictly after the cursor
	// (from the beginning when after is nil).
	ListMaintenanceRecords(filter model.RecordFilter, after *model.RecordCursor, limit int) ([]*model.MaintenanceRecord, error)

	// CountEquipmentMaintainedBetween counts distinct equipment with at least one
	// current record dated in [from, to).
	CountEquipmentMaintainedBetween(from, to time.Time) (int, error)

	// History operations

	// ListHistoryRecords returns history ordered by date desc then history ID desc.
	// An empty equipmentID lists all history.
	ListHistoryRecords(equipmentID string) ([]*model.HistoryRecord, error)

	// Settings operations

	// GetSetting returns the stored value and whether the key exists.
	GetSetting(key string) (string, bool, error)

	// SetSetting inserts or updates the value for key.
	SetSetting(key, value string) error

	// User operations

	// FindUserByName returns the user with the given username.
	FindUserByName(username string) (*model.User, error)

	// CreateUser inserts a user and sets its ID. Returns *ConflictError on a duplicate username.
	CreateUser(user *model.User) error

	// UpdateUser renames the user currently called username and sets its role,
	// then fills in user's ID and password hash. Returns *NotFoundError if
	// absent and *ConflictError if the new username is taken.
	UpdateUser(username string, user *model.User) error

	// SetUserPassword replaces a user's password hash. Returns *NotFoundError if absent.
	SetUserPassword(username, hash string) error

	// DeleteUser removes a user. Records they created keep a NULL creator.
	DeleteUser(username string) error

	// ListUsers returns all users ordered by username.
	ListUsers() ([]*model.User, error)

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(destPath string) error

	// Close closes the database connection.
	Close() error
}
