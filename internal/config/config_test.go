package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %s", cfg.Listen)
	}
	if cfg.Stripe.DefaultCoins != 5 {
		t.Errorf("DefaultCoins = %d, want 5", cfg.Stripe.DefaultCoins)
	}
	if cfg.Kafka.Topic != "session-events" {
		t.Errorf("Kafka.Topic = %s", cfg.Kafka.Topic)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
listen = ":9000"

[stripe]
webhook_secret = "whsec_file"
default_coins = 10

[store]
path = "/tmp/sessions.db"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %s", cfg.Listen)
	}
	if cfg.Stripe.WebhookSecret != "whsec_file" {
		t.Errorf("WebhookSecret = %s", cfg.Stripe.WebhookSecret)
	}
	if cfg.Stripe.DefaultCoins != 10 {
		t.Errorf("DefaultCoins = %d", cfg.Stripe.DefaultCoins)
	}
	if cfg.Store.Path != "/tmp/sessions.db" {
		t.Errorf("Store.Path = %s", cfg.Store.Path)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[stripe]\nwebhook_secret = \"whsec_file\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env")
	t.Setenv("COINS_PACK_1", "25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Stripe.WebhookSecret != "whsec_env" {
		t.Errorf("WebhookSecret = %s, want env override", cfg.Stripe.WebhookSecret)
	}
	if cfg.Stripe.DefaultCoins != 25 {
		t.Errorf("DefaultCoins = %d, want 25", cfg.Stripe.DefaultCoins)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Fatal("Load() = nil error for missing file")
	}
}
