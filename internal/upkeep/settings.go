package upkeep

import (
	"fmt"
	"strconv"
	"strings"
)

// Setting keys read by the alert scheduler.
const (
	KeyAlertDayOfMonth    = "alertDayOfMonth"
	KeyPreWarningDays     = "preWarningDays"
	KeyLastAlertCheckDate = "lastAlertCheckDate"
)

// SettingsStore is the key/value configuration kept in the database.
// It performs no range checks; callers own those.
type SettingsStore struct {
	db     Database
	logger Logger
}

func NewSettingsStore(db Database, logger Logger) *SettingsStore {
	return &SettingsStore{db: db, logger: logger}
}

// Get returns the value for key, or def when the key is absent or empty.
func (s *SettingsStore) Get(key, def string) (string, error) {
	value, ok, err := s.db.GetSetting(key)
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	if !ok || value == "" {
		return def, nil
	}
	return value, nil
}

// Set upserts key=value.
func (s *SettingsStore) Set(key, value string) error {
	if err := s.db.SetSetting(key, value); err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	s.logger.Debug("setting written", "key", key, "value", value)
	return nil
}

// GetInt returns the integer value for key, or def when absent or empty.
// A non-integer value is a *ConfigError.
func (s *SettingsStore) GetInt(key string, def int) (int, error) {
	raw, err := s.Get(key, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ConfigError{Key: key, Value: raw, Reason: "not an integer"}
	}
	return n, nil
}

// SetInt stores n under key.
func (s *SettingsStore) SetInt(key string, n int) error {
	return s.Set(key, strconv.Itoa(n))
}
