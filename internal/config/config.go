// Package config holds the gateway's explicit runtime configuration.
// Values come from an optional TOML file, overridden by environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Listen string `toml:"listen"`
	Stripe Stripe `toml:"stripe"`
	Store  Store  `toml:"store"`
	Kafka  Kafka  `toml:"kafka"`
}

type Stripe struct {
	// WebhookSecret authenticates inbound notifications. The webhook
	// endpoint returns 500 while it is unset.
	WebhookSecret string `toml:"webhook_secret"`
	// SecretKey authenticates outbound calls to the provider API.
	SecretKey string `toml:"secret_key"`
	APIBase   string `toml:"api_base"`
	// PriceID, when set, requires a matching line item before a payment
	// is recorded.
	PriceID      string `toml:"price_id"`
	DefaultCoins int    `toml:"default_coins"`
}

type Store struct {
	// Path of the SQLite database file. Empty selects the in-memory store.
	Path string `toml:"path"`
}

type Kafka struct {
	// Broker address. Empty disables session-event publishing.
	Broker string `toml:"broker"`
	Topic  string `toml:"topic"`
}

// Load reads the config file at path (skipped when path is empty), applies
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := Config{
		Listen: ":8080",
		Stripe: Stripe{DefaultCoins: 5},
		Kafka:  Kafka{Topic: "session-events"},
	}

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()
		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Listen, "LISTEN_ADDR")
	setString(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Stripe.APIBase, "STRIPE_API_BASE")
	setString(&cfg.Stripe.PriceID, "PRICE_ID_PACK_1")
	setString(&cfg.Store.Path, "SESSIONS_DB")
	setString(&cfg.Kafka.Broker, "KAFKA_BROKER")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")

	if v := os.Getenv("COINS_PACK_1"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stripe.DefaultCoins = n
		}
	}
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
