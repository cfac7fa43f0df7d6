// Package config loads the engine configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Ingestion modes.
const (
	ModePoll    = "poll"
	ModeWebhook = "webhook"
)

// Config is the explicit configuration value threaded through boot. There is
// no ambient global; the engine and its sources hold what they need.
type Config struct {
	Mode     string         `koanf:"mode"`
	Telegram TelegramConfig `koanf:"telegram"`
	Poll     PollConfig     `koanf:"poll"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	Cursor   CursorConfig   `koanf:"cursor"`
}

type TelegramConfig struct {
	Token   string `koanf:"token"`
	BaseURL string `koanf:"base_url"` // optional, for self-hosted Bot API servers
}

type PollConfig struct {
	TimeoutSeconds int      `koanf:"timeout_seconds"`
	InitialOffset  int64    `koanf:"initial_offset"`
	AllowedUpdates []string `koanf:"allowed_updates"`
}

type WebhookConfig struct {
	Path        string `koanf:"path"`
	Port        int    `koanf:"port"`
	SecretToken string `koanf:"secret_token"`
}

type CursorConfig struct {
	Type   string       `koanf:"type"` // memory, sqlite
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration from path (a missing file is fine, env-only
// setups are supported), applies BOTFLOW_* environment overrides and
// defaults, and substitutes ${VAR} references in the bot token.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Environment variables override file config: BOTFLOW_TELEGRAM__TOKEN
	// becomes telegram.token.
	if err := k.Load(env.Provider("BOTFLOW_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "BOTFLOW_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	// Defaults
	if !k.Exists("mode") {
		k.Set("mode", ModePoll)
	}
	if !k.Exists("poll.timeout_seconds") {
		k.Set("poll.timeout_seconds", 30)
	}
	if !k.Exists("webhook.path") {
		k.Set("webhook.path", "/telegram/webhook")
	}
	if !k.Exists("webhook.port") {
		k.Set("webhook.port", 8081)
	}
	if !k.Exists("cursor.type") {
		k.Set("cursor.type", "memory")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Telegram.Token = substituteEnvVars(cfg.Telegram.Token)

	return &cfg, nil
}

// Validate reports unrecoverable configuration errors. These are the only
// faults that are fatal at boot.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModePoll, ModeWebhook:
	default:
		return fmt.Errorf("invalid mode %q (expected %q or %q)", c.Mode, ModePoll, ModeWebhook)
	}

	if c.Mode == ModePoll && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required in poll mode")
	}
	if c.Mode == ModeWebhook && c.Webhook.Port <= 0 {
		return fmt.Errorf("webhook.port must be positive")
	}
	if c.Poll.TimeoutSeconds <= 0 {
		return fmt.Errorf("poll.timeout_seconds must be positive")
	}

	switch c.Cursor.Type {
	case "memory":
	case "sqlite":
		if c.Cursor.SQLite.Path == "" {
			return fmt.Errorf("cursor.sqlite.path is required for sqlite cursor storage")
		}
	default:
		return fmt.Errorf("invalid cursor.type %q (expected memory or sqlite)", c.Cursor.Type)
	}

	return nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
