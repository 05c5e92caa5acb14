package upkeep

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ForeignKeyError reports a reference to equipment or an operator that does
// not exist. UserID is set when the missing row is the operator.
type ForeignKeyError struct {
	EquipmentID string
	UserID      int64
}

func (e *ForeignKeyError) Error() string {
	if e.UserID != 0 {
		return fmt.Sprintf("operator does not exist: %d", e.UserID)
	}
	return fmt.Sprintf("equipment does not exist: %s", e.EquipmentID)
}

// ConflictError reports an identifier that is already taken.
type ConflictError struct {
	Entity string
	ID     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.ID)
}

// NotFoundError reports that the target of an operation does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// PermissionError reports an operator whose role does not allow an action.
type PermissionError struct {
	Username string
	Need     string
}

func (e *PermissionError) Error() string {
	if e.Username == "" {
		return fmt.Sprintf("an authenticated %s is required", e.Need)
	}
	return fmt.Sprintf("%s is not an %s", e.Username, e.Need)
}

// ConfigError reports a stored setting whose value is malformed or out of range.
type ConfigError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("setting %s=%q: %s", e.Key, e.Value, e.Reason)
}

// IsRejection reports whether err is one of the input-level rejections
// (validation, foreign key, conflict, not found) rather than a storage failure.
// Bulk import skips rows rejected this way.
func IsRejection(err error) bool {
	var (
		ve *ValidationError
		fe *ForeignKeyError
		ce *ConflictError
		ne *NotFoundError
	)
	return errors.As(err, &ve) || errors.As(err, &fe) || errors.As(err, &ce) || errors.As(err, &ne)
}
