package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"upkeep/internal/model"
)

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the SQL for every table. Run it against the connection or
// bind it to a transaction with withTx.
type queries struct {
	db dbtx
}

func (q *queries) withTx(tx *sql.Tx) *queries {
	return &queries{db: tx}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Equipment

const equipmentColumns = `id, name, brand, model, serial, location, description, registered_at, created_by`

func scanEquipment(s scanner) (*model.Equipment, error) {
	var e model.Equipment
	err := s.Scan(&e.ID, &e.Name, &e.Brand, &e.Model, &e.Serial, &e.Location, &e.Description, &e.RegisteredAt, &e.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *queries) getEquipment(ctx context.Context, id string) (*model.Equipment, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`, id)
	e, err := scanEquipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (q *queries) equipmentExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, `SELECT 1 FROM equipment WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (q *queries) insertEquipment(ctx context.Context, e *model.Equipment) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO equipment (`+equipmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Brand, e.Model, e.Serial, e.Location, e.Description, e.RegisteredAt, e.CreatedBy)
	return err
}

func (q *queries) updateEquipment(ctx context.Context, e *model.Equipment) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE equipment
		SET name = ?, brand = ?, model = ?, serial = ?, location = ?, description = ?
		WHERE id = ?`,
		e.Name, e.Brand, e.Model, e.Serial, e.Location, e.Description, e.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) renameEquipment(ctx context.Context, oldID, newID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE equipment SET id = ? WHERE id = ?`, newID, oldID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) deleteEquipment(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) listEquipment(ctx context.Context) ([]*model.Equipment, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+equipmentColumns+` FROM equipment ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *queries) countEquipment(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM equipment`).Scan(&n)
	return n, err
}

// Maintenance records

const maintenanceColumns = `id, equipment_id, date, type, status, provider, cost, notes, created_by, recorded_at`

func scanMaintenance(s scanner) (*model.MaintenanceRecord, error) {
	var (
		r    model.MaintenanceRecord
		date string
	)
	err := s.Scan(&r.ID, &r.EquipmentID, &date, &r.Type, &r.Status, &r.Provider, &r.Cost, &r.Notes, &r.CreatedBy, &r.RecordedAt)
	if err != nil {
		return nil, err
	}
	if r.Date, err = time.Parse(model.ISODate, date); err != nil {
		return nil, fmt.Errorf("parsing date of record %s: %w", r.ID, err)
	}
	return &r, nil
}

func (q *queries) getMaintenance(ctx context.Context, id string) (*model.MaintenanceRecord, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_current WHERE id = ?`, id)
	r, err := scanMaintenance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// currentForEquipment returns the equipment's current records, newest first.
// Ties on date go to the most recently recorded.
func (q *queries) currentForEquipment(ctx context.Context, equipmentID string) ([]*model.MaintenanceRecord, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+maintenanceColumns+`
		FROM maintenance_current
		WHERE equipment_id = ?
		ORDER BY date DESC, recorded_at DESC`, equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMaintenance(rows)
}

func (q *queries) insertMaintenance(ctx context.Context, r *model.MaintenanceRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO maintenance_current (`+maintenanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.EquipmentID, r.Date.Format(model.ISODate), r.Type, r.Status,
		r.Provider, r.Cost.String(), r.Notes, r.CreatedBy, r.RecordedAt)
	return err
}

func (q *queries) updateMaintenance(ctx context.Context, r *model.MaintenanceRecord) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE maintenance_current
		SET equipment_id = ?, date = ?, type = ?, status = ?, provider = ?, cost = ?, notes = ?
		WHERE id = ?`,
		r.EquipmentID, r.Date.Format(model.ISODate), r.Type, r.Status,
		r.Provider, r.Cost.String(), r.Notes, r.ID)
	return err
}

func (q *queries) updateMaintenanceStatus(ctx context.Context, id string, status model.MaintenanceStatus) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE maintenance_current SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) deleteMaintenance(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM maintenance_current WHERE id = ?`, id)
	return err
}

func (q *queries) listMaintenance(ctx context.Context, f model.RecordFilter, after *model.RecordCursor, limit int) ([]*model.MaintenanceRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.EquipmentID != "" {
		where = append(where, "equipment_id = ?")
		args = append(args, f.EquipmentID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.Format(model.ISODate))
	}
	if !f.To.IsZero() {
		where = append(where, "date < ?")
		args = append(args, f.To.Format(model.ISODate))
	}
	if after != nil {
		d := after.Date.Format(model.ISODate)
		where = append(where, "(date < ? OR (date = ? AND id < ?))")
		args = append(args, d, d, after.ID)
	}

	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_current`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMaintenance(rows)
}

func (q *queries) countEquipmentMaintainedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT e.id)
		FROM equipment e
		JOIN maintenance_current m ON m.equipment_id = e.id
		WHERE m.date >= ? AND m.date < ?`,
		from.Format(model.ISODate), to.Format(model.ISODate)).Scan(&n)
	return n, err
}

func collectMaintenance(rows *sql.Rows) ([]*model.MaintenanceRecord, error) {
	var out []*model.MaintenanceRecord
	for rows.Next() {
		r, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// History

const historyColumns = `history_id, original_id, equipment_id, date, type, status, provider, cost, notes, created_by, recorded_at`

func (q *queries) appendHistory(ctx context.Context, h *model.HistoryRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO maintenance_history (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.HistoryID, h.OriginalID, h.EquipmentID, h.Date.Format(model.ISODate), h.Type, h.Status,
		h.Provider, h.Cost.String(), h.Notes, h.CreatedBy, h.RecordedAt)
	return err
}

func (q *queries) listHistory(ctx context.Context, equipmentID string) ([]*model.HistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM maintenance_history`
	var args []any
	if equipmentID != "" {
		query += ` WHERE equipment_id = ?`
		args = append(args, equipmentID)
	}
	query += ` ORDER BY date DESC, history_id DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.HistoryRecord
	for rows.Next() {
		var (
			h    model.HistoryRecord
			date string
		)
		err := rows.Scan(&h.HistoryID, &h.OriginalID, &h.EquipmentID, &date, &h.Type, &h.Status,
			&h.Provider, &h.Cost, &h.Notes, &h.CreatedBy, &h.RecordedAt)
		if err != nil {
			return nil, err
		}
		if h.Date, err = time.Parse(model.ISODate, date); err != nil {
			return nil, fmt.Errorf("parsing date of history %s: %w", h.HistoryID, err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

// Settings

func (q *queries) getSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := q.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (q *queries) upsertSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Users

const userColumns = `id, username, password_hash, role`

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role); err != nil {
		return nil, err
	}
	return &u, nil
}

func (q *queries) getUserByName(ctx context.Context, username string) (*model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (q *queries) insertUser(ctx context.Context, u *model.User) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, u.Role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *queries) updateUser(ctx context.Context, id int64, username string, role model.Role) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET username = ?, role = ? WHERE id = ?`, username, role, id)
	return err
}

func (q *queries) updateUserPassword(ctx context.Context, username, hash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE username = ?`, hash, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) deleteUser(ctx context.Context, username string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) listUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
