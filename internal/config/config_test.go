package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:  "/home/user/.local/share/upkeep",
		LogDir:   "/home/user/.local/share/upkeep/log",
		LogLevel: "debug",
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/upkeep/db"},
		Display:  DisplayConfig{DateFormat: DateFormatISO},
		Alerts:   AlertsConfig{WatchSchedule: "30 7 * * 1-5"},
		Backup: BackupConfig{
			Vault: VaultConfig{Type: "filesystem", Name: "usb", FSVaultRoot: "/media/usb/upkeep"},
			Encryption: EncryptionConfig{
				Type:           "age",
				PublicKeyPath:  "/home/user/.local/share/upkeep/keys/upkeep.pub",
				PrivateKeyPath: "/home/user/.local/share/upkeep/keys/upkeep.key",
			},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.Database.DataDir != original.Database.DataDir {
		t.Errorf("Database.DataDir = %q, want %q", got.Database.DataDir, original.Database.DataDir)
	}
	if got.Display.DateFormat != DateFormatISO {
		t.Errorf("Display.DateFormat = %q, want %q", got.Display.DateFormat, DateFormatISO)
	}
	if got.Alerts.WatchSchedule != "30 7 * * 1-5" {
		t.Errorf("Alerts.WatchSchedule = %q, want %q", got.Alerts.WatchSchedule, "30 7 * * 1-5")
	}
	if got.Backup.Vault.FSVaultRoot != "/media/usb/upkeep" {
		t.Errorf("Backup.Vault.FSVaultRoot = %q, want %q", got.Backup.Vault.FSVaultRoot, "/media/usb/upkeep")
	}
	if got.Backup.Encryption.PrivateKeyPath != original.Backup.Encryption.PrivateKeyPath {
		t.Errorf("Backup.Encryption.PrivateKeyPath = %q, want %q", got.Backup.Encryption.PrivateKeyPath, original.Backup.Encryption.PrivateKeyPath)
	}
}

func TestManager_Read_RejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"log level", `log_level = "loud"`},
		{"date format", "[display]\ndate_format = \"mdy\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manager{}
			if _, err := m.Read(strings.NewReader(tt.input)); err == nil {
				t.Error("Read() expected error")
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/upkeep")

	checks := []struct {
		field, got, want string
	}{
		{"BaseDir", cfg.BaseDir, "/data/upkeep"},
		{"LogDir", cfg.LogDir, "/data/upkeep/log"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"Database.Type", cfg.Database.Type, "sqlite"},
		{"Database.DataDir", cfg.Database.DataDir, "/data/upkeep/db"},
		{"Display.DateFormat", cfg.Display.DateFormat, DateFormatDMY},
		{"Alerts.WatchSchedule", cfg.Alerts.WatchSchedule, DefaultWatchSchedule},
		{"Backup.Vault.FSVaultRoot", cfg.Backup.Vault.FSVaultRoot, "/data/upkeep/backups"},
		{"Backup.Encryption.PublicKeyPath", cfg.Backup.Encryption.PublicKeyPath, "/data/upkeep/keys/upkeep.pub"},
		{"Backup.Encryption.PrivateKeyPath", cfg.Backup.Encryption.PrivateKeyPath, "/data/upkeep/keys/upkeep.key"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "upkeep.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "upkeep.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "upkeep.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
		if got.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", got.BaseDir, dir)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/upkeep.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
