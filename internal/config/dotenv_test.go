package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoadDotEnv_ParsesEntries(t *testing.T) {
	path := writeEnvFile(t, `
# local development settings
TYPING_DELAY=200ms
export CONVERSATIONS_TABLE=messages_dev
ADMIN_PASSWORD="s3cret"
not-a-valid-line
`)
	t.Setenv("TYPING_DELAY", "")
	t.Setenv("CONVERSATIONS_TABLE", "")
	t.Setenv("ADMIN_PASSWORD", "")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := os.Getenv("TYPING_DELAY"); got != "200ms" {
		t.Errorf("TYPING_DELAY: expected 200ms, got %q", got)
	}
	if got := os.Getenv("CONVERSATIONS_TABLE"); got != "messages_dev" {
		t.Errorf("CONVERSATIONS_TABLE: expected messages_dev, got %q", got)
	}
	if got := os.Getenv("ADMIN_PASSWORD"); got != "s3cret" {
		t.Errorf("ADMIN_PASSWORD: expected quotes stripped, got %q", got)
	}
}

func TestLoadDotEnv_EnvWinsOverFile(t *testing.T) {
	path := writeEnvFile(t, "SESSION_TTL=5m\n")
	t.Setenv("SESSION_TTL", "1h")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("SESSION_TTL"); got != "1h" {
		t.Errorf("expected the process env to win, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
