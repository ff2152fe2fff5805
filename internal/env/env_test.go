package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetters(t *testing.T) {
	t.Setenv("QRC_TEST_STRING", "hello")
	t.Setenv("QRC_TEST_INT", " 8 ")
	t.Setenv("QRC_TEST_BAD_INT", "eight")
	t.Setenv("QRC_TEST_BOOL", "true")
	t.Setenv("QRC_TEST_DURATION", "30s")
	t.Setenv("QRC_TEST_EMPTY", "")

	if got := GetString("QRC_TEST_STRING", "x"); got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
	if got := GetString("QRC_TEST_EMPTY", "x"); got != "" {
		t.Errorf("expected an explicitly empty value to win, got %q", got)
	}
	if got := GetString("QRC_TEST_UNSET", "x"); got != "x" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := GetInt("QRC_TEST_INT", 1); got != 8 {
		t.Errorf("expected 8, got %d", got)
	}
	if got := GetInt("QRC_TEST_BAD_INT", 1); got != 1 {
		t.Errorf("expected fallback for a bad int, got %d", got)
	}
	if got := GetBool("QRC_TEST_BOOL", false); !got {
		t.Error("expected true")
	}
	if got := GetDuration("QRC_TEST_DURATION", time.Second); got != 30*time.Second {
		t.Errorf("expected 30s, got %s", got)
	}
	if got := GetDuration("QRC_TEST_UNSET", time.Second); got != time.Second {
		t.Errorf("expected fallback, got %s", got)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("QRC_TEST_FROM_FILE=file\nQRC_TEST_PRESET=file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("QRC_TEST_PRESET", "env")
	// Cleared after the test since LoadEnv sets it directly
	t.Setenv("QRC_TEST_FROM_FILE", "")
	os.Unsetenv("QRC_TEST_FROM_FILE")

	if err := LoadEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := GetString("QRC_TEST_FROM_FILE", ""); got != "file" {
		t.Errorf("expected value from file, got %q", got)
	}
	if got := GetString("QRC_TEST_PRESET", ""); got != "env" {
		t.Errorf("expected existing variable to be kept, got %q", got)
	}
}
