package upkeep

import (
	"database/sql"
	"fmt"
	"strings"

	"upkeep/internal/model"
)

// EquipmentRegistry manages the set of known equipment.
type EquipmentRegistry struct {
	db     Database
	logger Logger
	clock  Clock
}

func NewEquipmentRegistry(db Database, logger Logger, clock Clock) *EquipmentRegistry {
	return &EquipmentRegistry{db: db, logger: logger, clock: clock}
}

// Add registers new equipment. ID and Name are required.
func (r *EquipmentRegistry) Add(equipment *model.Equipment, createdBy sql.NullInt64) error {
	equipment.ID = strings.TrimSpace(equipment.ID)
	equipment.Name = strings.TrimSpace(equipment.Name)
	if err := validateEquipment(equipment); err != nil {
		return err
	}

	equipment.RegisteredAt = r.clock.Now()
	equipment.CreatedBy = createdBy
	if err := r.db.CreateEquipment(equipment); err != nil {
		return fmt.Errorf("adding equipment: %w", err)
	}

	r.logger.Info("equipment added", "id", equipment.ID, "name", equipment.Name)
	return nil
}

// Update overwrites the descriptive fields of existing equipment.
func (r *EquipmentRegistry) Update(equipment *model.Equipment) error {
	if err := validateEquipment(equipment); err != nil {
		return err
	}
	if err := r.db.UpdateEquipment(equipment); err != nil {
		return fmt.Errorf("updating equipment: %w", err)
	}
	r.logger.Info("equipment updated", "id", equipment.ID)
	return nil
}

// Rename changes an equipment ID. The current record follows the new ID;
// history snapshots keep the ID they were archived under.
func (r *EquipmentRegistry) Rename(oldID, newID string) error {
	oldID = strings.TrimSpace(oldID)
	newID = strings.TrimSpace(newID)
	if newID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if newID == oldID {
		return nil
	}
	if err := r.db.RenameEquipment(oldID, newID); err != nil {
		return fmt.Errorf("renaming equipment: %w", err)
	}
	r.logger.Info("equipment renamed", "id", oldID, "new_id", newID)
	return nil
}

// Remove deletes equipment together with its current maintenance records.
func (r *EquipmentRegistry) Remove(id string) error {
	if err := r.db.DeleteEquipment(id); err != nil {
		return fmt.Errorf("removing equipment: %w", err)
	}
	r.logger.Info("equipment removed", "id", id)
	return nil
}

// Get returns the equipment with the given ID, or *NotFoundError.
func (r *EquipmentRegistry) Get(id string) (*model.Equipment, error) {
	e, err := r.db.FindEquipment(id)
	if err != nil {
		return nil, fmt.Errorf("finding equipment: %w", err)
	}
	if e == nil {
		return nil, &NotFoundError{Entity: "equipment", ID: id}
	}
	return e, nil
}

// List returns all equipment ordered by name.
func (r *EquipmentRegistry) List() ([]*model.Equipment, error) {
	list, err := r.db.ListEquipment()
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	return list, nil
}

// Count returns the number of registered equipment.
func (r *EquipmentRegistry) Count() (int, error) {
	n, err := r.db.CountEquipment()
	if err != nil {
		return 0, fmt.Errorf("counting equipment: %w", err)
	}
	return n, nil
}

func validateEquipment(e *model.Equipment) error {
	if e.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if e.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	return nil
}
