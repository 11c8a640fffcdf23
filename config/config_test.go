package config

import (
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "12345:test-token")
	t.Setenv("ADMIN_IDS", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("WEBHOOK_URL", "")
	t.Setenv("SERVER_PORT", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramToken != "12345:test-token" {
		t.Errorf("token = %q", cfg.TelegramToken)
	}
	if cfg.DatabasePath != "./data/countdownbot.db" {
		t.Errorf("db path = %q", cfg.DatabasePath)
	}
	if cfg.Timezone.String() != "Europe/Moscow" {
		t.Errorf("timezone = %v", cfg.Timezone)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("port = %q", cfg.ServerPort)
	}
	if len(cfg.AdminIDs) != 0 {
		t.Errorf("admin ids = %v", cfg.AdminIDs)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Error("Load without token should fail")
	}
}

func TestAdminIDs(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ADMIN_IDS", "123, 456")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.AdminIDs) != 2 || cfg.AdminIDs[0] != 123 || cfg.AdminIDs[1] != 456 {
		t.Errorf("admin ids = %v", cfg.AdminIDs)
	}
	if !cfg.IsAdmin(123) || !cfg.IsAdmin(456) {
		t.Error("configured admin not recognised")
	}
	if cfg.IsAdmin(789) {
		t.Error("stranger recognised as admin")
	}
}

func TestAdminIDsBadEntry(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ADMIN_IDS", "123,oops")

	if _, err := Load(); err == nil {
		t.Error("Load with a bad ADMIN_IDS entry should fail")
	}
}

func TestBadTimezone(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Error("Load with an unknown timezone should fail")
	}
}
