package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_Precedence(t *testing.T) {
	explicit := t.TempDir()
	fallback := t.TempDir()
	fromEnv := t.TempDir()
	t.Setenv(EnvConfigDir, fromEnv)

	tests := []struct {
		name     string
		explicit string
		fallback string
		want     string
	}{
		{"explicit wins", explicit, fallback, explicit},
		{"fallback next", "", fallback, fallback},
		{"env last", "", "", fromEnv},
	}

	for _, tc := range tests {
		got, err := Resolve(tc.explicit, tc.fallback)
		if err != nil {
			t.Fatalf("%s: Resolve failed: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: Resolve = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestResolve_Unresolvable(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	if _, err := Resolve("", ""); err == nil {
		t.Fatal("Expected error when nothing is resolvable")
	}
}

func TestResolve_MissingDirectory(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	if _, err := Resolve(filepath.Join(t.TempDir(), "nope"), ""); err == nil {
		t.Fatal("Expected error for a nonexistent directory")
	}
}

func TestResolve_NotADirectory(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(file, ""); err == nil {
		t.Fatal("Expected error for a non-directory path")
	}
}

func TestStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store, err := NewStoreAt(path)
	if err != nil {
		t.Fatalf("NewStoreAt failed: %v", err)
	}
	if got := store.Get(); got.ServerName != "mco-server" {
		t.Errorf("Default ServerName = %q", got.ServerName)
	}

	if err := store.SetConfigDir("/tmp/mco-config"); err != nil {
		t.Fatalf("SetConfigDir failed: %v", err)
	}

	reloaded, err := NewStoreAt(path)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := reloaded.Get(); got.ConfigDir != "/tmp/mco-config" {
		t.Errorf("ConfigDir after reload = %q", got.ConfigDir)
	}
}
