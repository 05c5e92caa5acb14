package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"upkeep/internal/database/migrations"
	"upkeep/internal/model"
	"upkeep/internal/upkeep"

	"github.com/mattn/go-sqlite3"
)

// SQLiteDatabase implements the Database interface using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *queries
	path    string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:      db,
		queries: &queries{db: db},
		path:    path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		db:      db,
		queries: &queries{db: db},
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: the process is the only writer, PRAGMAs are
	// per-connection, and every new ":memory:" connection is a new database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// CheckMigrations returns an error unless the schema is at the latest version.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrateUp applies pending schema migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// Path returns the file the database was opened from, empty when wrapped.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// isForeignKeyViolation reports whether err is SQLite refusing a row whose
// reference has no target.
func isForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// Equipment operations

func (s *SQLiteDatabase) FindEquipment(id string) (*model.Equipment, error) {
	e, err := s.queries.getEquipment(context.Background(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to find equipment: %w", err)
	}
	return e, nil
}

func (s *SQLiteDatabase) CreateEquipment(equipment *model.Equipment) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.withTx(tx)

	exists, err := qtx.equipmentExists(ctx, equipment.ID)
	if err != nil {
		return fmt.Errorf("failed to check equipment: %w", err)
	}
	if exists {
		return &upkeep.ConflictError{Entity: "equipment", ID: equipment.ID}
	}

	if err := qtx.insertEquipment(ctx, equipment); err != nil {
		if isForeignKeyViolation(err) {
			return &upkeep.ForeignKeyError{UserID: equipment.CreatedBy.Int64}
		}
		return fmt.Errorf("failed to insert equipment: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteDatabase) UpdateEquipment(equipment *model.Equipment) error {
	n, err := s.queries.updateEquipment(context.Background(), equipment)
	if err != nil {
		return fmt.Errorf("failed to update equipment: %w", err)
	}
	if n == 0 {
		return &upkeep.NotFoundError{Entity: "equipment", ID: equipment.ID}
	}
	return nil
}

// RenameEquipment changes an equipment ID. Current records follow through the
// cascade on their foreign key; history keeps the ID it was archived under.
func (s *SQLiteDatabase) RenameEquipment(oldID, newID string) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.withTx(tx)

	taken, err := qtx.equipmentExists(ctx, newID)
	if err != nil {
		return fmt.Errorf("failed to check equipment: %w", err)
	}
	if taken {
		return &upkeep.ConflictError{Entity: "equipment", ID: newID}
	}

	n, err := qtx.renameEquipment(ctx, oldID, newID)
	if err != nil {
		return fmt.Errorf("failed to rename equipment: %w", err)
	}
	if n == 0 {
		return &upkeep.NotFoundError{Entity: "equipment", ID: oldID}
	}

	return tx.Commit()
}

func (s *SQLiteDatabase) DeleteEquipment(id string) error {
	n, err := s.queries.deleteEquipment(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	if n == 0 {
		return &upkeep.NotFoundError{Entity: "equipment", ID: id}
	}
	return nil
}

func (s *SQLiteDatabase) ListEquipment() ([]*model.Equipment, error) {
	list, err := s.queries.listEquipment(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return list, nil
}

func (s *SQLiteDatabase) CountEquipment() (int, error) {
	n, err := s.queries.countEquipment(context.Background())
	if err != nil {
		return 0, fmt.Errorf("failed to count equipment: %w", err)
	}
	return n, nil
}

// Maintenance operations

func (s *SQLiteDatabase) FindMaintenanceRecord(id string) (*model.MaintenanceRecord, error) {
	r, err := s.queries.getMaintenance(context.Background(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to find maintenance record: %w", err)
	}
	return r, nil
}

func (s *SQLiteDatabase) SupersedeMaintenanceRecord(record *model.MaintenanceRecord, idgen upkeep.IDGenerator) ([]*model.HistoryRecord, error) {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.withTx(tx)

	exists, err := qtx.equipmentExists(ctx, record.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check equipment: %w", err)
	}
	if !exists {
		return nil, &upkeep.ForeignKeyError{EquipmentID: record.EquipmentID}
	}

	taken, err := qtx.getMaintenance(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check record id: %w", err)
	}
	if taken != nil {
		return nil, &upkeep.ConflictError{Entity: "maintenance record", ID: record.ID}
	}

	current, err := qtx.currentForEquipment(ctx, record.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read current records: %w", err)
	}

	archived := make([]*model.HistoryRecord, 0, len(current))
	for _, old := range current {
		snap := old.Snapshot(idgen.New())
		if err := qtx.appendHistory(ctx, snap); err != nil {
			return nil, fmt.Errorf("failed to archive record %s: %w", old.ID, err)
		}
		if err := qtx.deleteMaintenance(ctx, old.ID); err != nil {
			return nil, fmt.Errorf("failed to remove record %s: %w", old.ID, err)
		}
		archived = append(archived, snap)
	}

	// The equipment was checked above, so a refused reference is the creator.
	// Returning rolls back the archive step.
	if err := qtx.insertMaintenance(ctx, record); err != nil {
		if isForeignKeyViolation(err) {
			return nil, &upkeep.ForeignKeyError{UserID: record.CreatedBy.Int64}
		}
		return nil, fmt.Errorf("failed to insert maintenance record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return archived, nil
}

func (s *SQLiteDatabase) UpdateMaintenanceRecord(record *model.MaintenanceRecord) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.withTx(tx)

	existing, err := qtx.getMaintenance(ctx, record.ID)
	if err != nil {
		return fmt.Errorf("failed to find maintenance record: %w", err)
	}
	if existing == nil {
		return &upkeep.NotFoundError{Entity: "maintenance record", ID: record.ID}
	}

	if record.EquipmentID != existing.EquipmentID {
		exists, err := qtx.equipmentExists(ctx, record.EquipmentID)
		if err != nil {
			return fmt.Errorf("failed to check equipment: %w", err)
		}
		if !exists {
			return &upkeep.ForeignKeyError{EquipmentID: record.EquipmentID}
		}
		occupied, err := qtx.currentForEquipment(ctx, record.EquipmentID)
		if err != nil {
			return fmt.Errorf("failed to read current records: %w", err)
		}
		if len(occupied) > 0 {
			return &upkeep.ConflictError{Entity: "current record for equipment", ID: record.EquipmentID}
		}
	}

	if err := qtx.updateMaintenance(ctx, record); err != nil {
		return fmt.Errorf("failed to update maintenance record: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteDatabase) UpdateMaintenanceStatus(id string, status model.MaintenanceStatus) error {
	n, err := s.queries.updateMaintenanceStatus(context.Background(), id, status)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if n == 0 {
		return &upkeep.NotFoundError{Entity: "maintenance record", ID: id}
	}
	return nil
}

func (s *SQLiteDatabase) ListMaintenanceRecords(filter model.RecordFilter, after *model.RecordCursor, limit int) ([]*model.MaintenanceRecord, error) {
	list, err := s.queries.listMaintenance(context.Background(), filter, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance records: %w", err)
	}
	return list, nil
}

func (s *SQLiteDatabase) CountEquipmentMaintainedBetween(from, to time.Time) (int, error) {
	n, err := s.queries.countEquipmentMaintainedBetween(context.Background(), from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to count maintained equipment: %w", err)
	}
	return n, nil
}

// History operations

func (s *SQLiteDatabase) ListHistoryRecords(equipmentID string) ([]*model.HistoryRecord, error) {
	list, err := s.queries.listHistory(context.Background(), equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return list, nil
}

// Settings operations

func (s *SQLiteDatabase) GetSetting(key string) (string, bool, error) {
	value, ok, err := s.queries.getSetting(context.Background(), key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, ok, nil
}

func (s *SQLiteDatabase) SetSetting(key, value string) error {
	if err := s.queries.upsertSetting(context.Background(), key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// User operations

func (s *SQLiteDatabase) FindUserByName(username string) (*model.User, error) {
	u, err := s.queries.getUserByName(context.Background(), username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

func (s *SQLiteDatabase) CreateUser(user *model.User) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.withTx(tx)

	existing, err := qtx.getUserByName(ctx, user.Username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return &upkeep.ConflictError{Entity: "user", ID: user.Username}
	}

	id, err := qtx.insertUser(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	user.ID = id
	return nil
}

// UpdateUser stores user's username and role on the row currently named
// username. Renaming onto a taken name is a conflict.
func (s *SQLiteDatabase) UpdateUser(username string, user *model.User) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.withTx(tx)

	existing, err := qtx.getUserByName(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if existing == nil {
		return &upkeep.NotFoundError{Entity: "user", ID: username}
	}

	if user.Username != username {
		other, err := qtx.getUserByName(ctx, user.Username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if other != nil {
			return &upkeep.ConflictError{Entity: "user", ID: user.Username}
		}
	}

	if err := qtx.updateUser(ctx, existing.ID, user.Username, user.Role); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	user.ID = existing.ID
	user.PasswordHash = existing.PasswordHash
	return nil
}

func (s *SQLiteDatabase) SetUserPassword(username, hash string) error {
	n, err := s.queries.updateUserPassword(context.Background(), username, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n == 0 {
		return &upkeep.NotFoundError{Entity: "user", ID: username}
	}
	return nil
}

func (s *SQLiteDatabase) DeleteUser(username string) error {
	n, err := s.queries.deleteUser(context.Background(), username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n == 0 {
		return &upkeep.NotFoundError{Entity: "user", ID: username}
	}
	return nil
}

func (s *SQLiteDatabase) ListUsers() ([]*model.User, error) {
	list, err := s.queries.listUsers(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return list, nil
}

// BackupTo writes a compacted copy of the database to destPath, which must not exist.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("backup destination already exists: %s", destPath)
	}
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

// Verify SQLiteDatabase implements upkeep.Database
var _ upkeep.Database = (*SQLiteDatabase)(nil)
