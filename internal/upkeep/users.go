package upkeep

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"upkeep/internal/model"
)

const minPasswordLength = 4

// Operators manages the people who record maintenance.
type Operators struct {
	db     Database
	logger Logger
}

func NewOperators(db Database, logger Logger) *Operators {
	return &Operators{db: db, logger: logger}
}

func validateRole(role model.Role) error {
	if !role.Valid() {
		return &ValidationError{Field: "role", Reason: fmt.Sprintf("must be %s or %s, got %q", model.RoleAdministrator, model.RoleTechnician, role)}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Add creates an operator with a bcrypt-hashed password.
func (o *Operators) Add(username, password string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "required"}
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}

	user := &model.User{Username: username, PasswordHash: hash, Role: role}
	if err := o.db.CreateUser(user); err != nil {
		return nil, fmt.Errorf("adding operator: %w", err)
	}

	o.logger.Info("operator added", "username", username, "role", string(role))
	return user, nil
}

// Authenticate returns the operator when the password matches.
// Unknown usernames and wrong passwords fail the same way.
func (o *Operators) Authenticate(username, password string) (*model.User, error) {
	invalid := &ValidationError{Field: "credentials", Reason: "unknown user or wrong password"}

	user, err := o.db.FindUserByName(strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("finding operator: %w", err)
	}
	if user == nil {
		return nil, invalid
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		o.logger.Warn("authentication failed", "username", username)
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("checking password: %w", err)
	}
	return user, nil
}

// RequireRole fails with *PermissionError unless user is authenticated and
// holds role.
func (o *Operators) RequireRole(user *model.User, role model.Role) error {
	if user == nil {
		return &PermissionError{Need: string(role)}
	}
	if user.Role != role {
		o.logger.Warn("permission denied", "username", user.Username, "role", string(user.Role), "need", string(role))
		return &PermissionError{Username: user.Username, Need: string(role)}
	}
	return nil
}

// Update renames an operator and sets its role. An empty newName keeps the
// current name.
func (o *Operators) Update(username, newName string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	newName = strings.TrimSpace(newName)
	if newName == "" {
		newName = username
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}

	user := &model.User{Username: newName, Role: role}
	if err := o.db.UpdateUser(username, user); err != nil {
		return nil, fmt.Errorf("updating operator: %w", err)
	}

	o.logger.Info("operator updated", "username", username, "new_username", newName, "role", string(role))
	return user, nil
}

// SetPassword replaces an operator's password.
func (o *Operators) SetPassword(username, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := o.db.SetUserPassword(strings.TrimSpace(username), hash); err != nil {
		return fmt.Errorf("setting password: %w", err)
	}
	o.logger.Info("operator password changed", "username", username)
	return nil
}

// Get returns the operator with the given username, or *NotFoundError.
func (o *Operators) Get(username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	user, err := o.db.FindUserByName(username)
	if err != nil {
		return nil, fmt.Errorf("finding operator: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Entity: "user", ID: username}
	}
	return user, nil
}

// List returns all operators ordered by username.
func (o *Operators) List() ([]*model.User, error) {
	users, err := o.db.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("listing operators: %w", err)
	}
	return users, nil
}

// Remove deletes an operator on behalf of actor, who must be an
// administrator other than the one removed. Records they created keep no
// creator.
func (o *Operators) Remove(actor *model.User, username string) error {
	if err := o.RequireRole(actor, model.RoleAdministrator); err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if username == actor.Username {
		return &ValidationError{Field: "username", Reason: "cannot remove the operator you are signed in as"}
	}
	if err := o.db.DeleteUser(username); err != nil {
		return fmt.Errorf("removing operator: %w", err)
	}
	o.logger.Info("operator removed", "username", username)
	return nil
}
