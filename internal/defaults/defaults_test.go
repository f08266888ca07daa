package defaults

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefault(t *testing.T) {
	content, err := GetDefault("config.yaml")
	if err != nil {
		t.Fatalf("GetDefault failed: %v", err)
	}
	if len(content) == 0 {
		t.Error("config.yaml content is empty")
	}
}

func TestDataDirOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(DataDirEnv, tmpDir)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if dir != tmpDir {
		t.Errorf("Expected %s, got %s", tmpDir, dir)
	}
}

func TestEnsureDataDir(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "data")
	t.Setenv(DataDirEnv, tmpDir)

	dir, err := EnsureDataDir()
	if err != nil {
		t.Fatalf("EnsureDataDir failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); os.IsNotExist(err) {
		t.Error("config.yaml was not copied")
	}
}

func TestEnsureDataDirKeepsUserEdits(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(DataDirEnv, tmpDir)

	custom := []byte("log:\n  level: debug\n")
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), custom, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(tmpDir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(custom) {
		t.Errorf("config.yaml was overwritten: %q", got)
	}
}

func TestRestoreConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	broken := []byte("browser: [\n")
	if err := os.WriteFile(path, broken, 0644); err != nil {
		t.Fatal(err)
	}

	backup, err := RestoreConfig(path)
	if err != nil {
		t.Fatalf("RestoreConfig failed: %v", err)
	}
	if backup != path+".broken" {
		t.Errorf("backup = %q", backup)
	}
	saved, err := os.ReadFile(backup)
	if err != nil || string(saved) != string(broken) {
		t.Errorf("backup content = %q, %v", saved, err)
	}

	want, _ := GetDefault("config.yaml")
	got, err := os.ReadFile(path)
	if err != nil || string(got) != string(want) {
		t.Errorf("config.yaml not restored: %v", err)
	}
}

func TestRestoreConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	backup, err := RestoreConfig(path)
	if err != nil {
		t.Fatalf("RestoreConfig failed: %v", err)
	}
	if backup != "" {
		t.Errorf("backup = %q, want none", backup)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
}
