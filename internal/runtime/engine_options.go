package runtime

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/botflow/botflow/internal/config"
	"github.com/botflow/botflow/internal/cursor"
	"github.com/botflow/botflow/internal/source"
)

// Option is a functional option for configuring an Engine.
type Option func(*Engine) error

// WithConfigFile loads configuration from a YAML file with BOTFLOW_*
// environment overrides.
func WithConfigFile(path string) Option {
	return func(e *Engine) error {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		e.cfg = cfg
		return nil
	}
}

// WithConfig uses an already-built configuration value.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) error {
		e.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithHTTPClient sets the HTTP client used by the default getUpdates client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) error {
		e.httpClient = c
		return nil
	}
}

// WithClient sets a custom update client, replacing the default Bot API
// client. Mostly useful for tests and alternative sources.
func WithClient(c source.UpdateClient) Option {
	return func(e *Engine) error {
		e.client = c
		return nil
	}
}

// WithCursorStore sets a custom cursor store, overriding the configured one.
func WithCursorStore(s cursor.Store) Option {
	return func(e *Engine) error {
		e.store = s
		return nil
	}
}

// WithMemoryCursor uses an in-memory cursor seeded at initial.
func WithMemoryCursor(initial int64) Option {
	return func(e *Engine) error {
		e.store = cursor.NewMemory(initial)
		return nil
	}
}

// WithSQLiteCursor persists the cursor in a SQLite database at path.
func WithSQLiteCursor(path string) Option {
	return func(e *Engine) error {
		store, err := cursor.NewSQLite(path)
		if err != nil {
			return fmt.Errorf("create sqlite cursor store: %w", err)
		}
		e.store = store
		return nil
	}
}
