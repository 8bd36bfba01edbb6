package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-leaf")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-leaf" {
			t.Errorf("expected path /tmp/test-leaf, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-leaf")

	t.Run("ExportsDir", func(t *testing.T) {
		expected := "/tmp/test-leaf/exports"
		if dir.ExportsDir() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ExportsDir())
		}
	})

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-leaf/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	leafDir := filepath.Join(tmpDir, "leaf-test")

	dir, err := New(leafDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("expected directory to not exist yet")
	}

	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	if !dir.Exists() {
		t.Error("expected directory to exist")
	}
	if _, err := os.Stat(dir.ExportsDir()); err != nil {
		t.Errorf("expected exports directory to exist: %v", err)
	}
}
