package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadPayloadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(path, []byte(`{"urls":["http://example.com/a"]}`), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	payload, err := readPayload(path)
	if err != nil {
		t.Fatalf("readPayload failed: %v", err)
	}
	if len(payload) == 0 {
		t.Fatal("expected payload bytes")
	}
}

func TestReadPayloadRejectsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := readPayload(path); err == nil {
		t.Fatal("expected error for blank payload")
	}
	if _, err := readPayload(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := readPayload(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if code := Run([]string{"nonsense"}); code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if code := Run(nil); code != 2 {
		t.Fatalf("exit code for no args = %d", code)
	}
	if code := Run([]string{"help"}); code != 0 {
		t.Fatalf("exit code for help = %d", code)
	}
}
