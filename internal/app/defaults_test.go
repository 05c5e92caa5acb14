package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("UPKEEP_CONFIG_PATH", "/custom/upkeep.toml")
		t.Setenv("UPKEEP_HOME", "/custom/upkeep")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/upkeep.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/upkeep.toml")
		}
		if defaults["base_dir"] != "/custom/upkeep" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/upkeep")
		}
		if defaults["log_dir"] != "/custom/upkeep/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/upkeep/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("UPKEEP_CONFIG_PATH", "")
		t.Setenv("UPKEEP_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "upkeep.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "upkeep")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}
		if defaults["log_dir"] != filepath.Join(wantBase, "log") {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], filepath.Join(wantBase, "log"))
		}
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}
	})

	t.Run("environment wins over file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "UPKEEP_HOME=/from/file\nUPKEEP_CONFIG_PATH=/from/file.toml\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("UPKEEP_HOME", "/from/env")
		// Registered so t.Setenv restores it; cleared so the file can set it.
		t.Setenv("UPKEEP_CONFIG_PATH", "")
		os.Unsetenv("UPKEEP_CONFIG_PATH")

		if err := LoadEnv(path); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}

		if got := os.Getenv("UPKEEP_HOME"); got != "/from/env" {
			t.Errorf("UPKEEP_HOME = %q, want /from/env", got)
		}
		if got := os.Getenv("UPKEEP_CONFIG_PATH"); got != "/from/file.toml" {
			t.Errorf("UPKEEP_CONFIG_PATH = %q, want /from/file.toml", got)
		}
	})
}
