// Package runtime provides the Engine struct and lifecycle management for
// the update ingestion and dispatch engine.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/botflow/botflow/internal/chain"
	"github.com/botflow/botflow/internal/config"
	"github.com/botflow/botflow/internal/cursor"
	"github.com/botflow/botflow/internal/dispatch"
	"github.com/botflow/botflow/internal/source"
	"github.com/botflow/botflow/internal/supervise"
	"github.com/botflow/botflow/internal/telegram"
)

// Engine wires the ingestion source, chain registry, dispatcher, and
// supervisor together and manages their lifecycle. It can be embedded in
// larger applications or run standalone via cmd/botflow.
type Engine struct {
	// Dependencies (injected via options)
	cfg        *config.Config
	logger     *slog.Logger
	client     source.UpdateClient
	store      cursor.Store
	httpClient *http.Client

	// Internal state
	registry   *chain.Registry
	supervisor *supervise.Supervisor
	src        source.Source

	// Lifecycle management
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	started bool
}

// New creates an Engine with the given options. A configuration is required
// (use WithConfig or WithConfigFile).
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:   slog.Default(),
		registry: chain.NewRegistry(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if e.cfg == nil {
		return nil, fmt.Errorf("configuration required (use WithConfig or WithConfigFile)")
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return e, nil
}

// Register adds a chain descriptor. Chains are registered at boot, before
// Start; registration order is dispatch order.
func (e *Engine) Register(d chain.Descriptor) error {
	return e.registry.Register(d)
}

// Start freezes the registry, builds the configured ingestion source, and
// runs it under supervision. It returns once the source is running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("engine already started")
	}

	e.ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})

	e.registry.Freeze()
	if e.registry.Len() == 0 {
		e.logger.Warn("no chains registered, every update will be a no-op")
	}

	if e.store == nil {
		if err := e.initCursorStore(); err != nil {
			return err
		}
	}
	if e.client == nil && e.cfg.Mode == config.ModePoll {
		e.initClient()
	}

	dispatcher := dispatch.New(e.registry, e.logger)
	e.supervisor = supervise.New(dispatcher, e.logger)

	switch e.cfg.Mode {
	case config.ModePoll:
		e.src = source.NewPoller(source.PollerConfig{
			Client:  e.client,
			Sink:    e.supervisor,
			Store:   e.store,
			Logger:  e.logger,
			Timeout: time.Duration(e.cfg.Poll.TimeoutSeconds) * time.Second,
			Allowed: e.cfg.Poll.AllowedUpdates,
		})
	case config.ModeWebhook:
		e.src = source.NewWebhook(source.WebhookConfig{
			Sink:   e.supervisor,
			Logger: e.logger,
			Port:   e.cfg.Webhook.Port,
			Path:   e.cfg.Webhook.Path,
			Secret: e.cfg.Webhook.SecretToken,
		})
	default:
		return fmt.Errorf("invalid mode %q", e.cfg.Mode)
	}

	go func() {
		defer close(e.done)
		e.supervisor.RunLoop(e.ctx, e.src.Name(), e.src.Run)
	}()

	e.started = true
	e.logger.Info("engine started",
		slog.String("mode", e.cfg.Mode),
		slog.Int("chains", e.registry.Len()))

	return nil
}

// Shutdown stops the ingestion source, drains in-flight dispatch units, and
// closes the cursor store. In-flight dispatches get until ctx expires.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}

	e.logger.Info("shutting down engine")
	e.cancel()

	select {
	case <-e.done:
	case <-ctx.Done():
		e.logger.Warn("ingestion loop did not stop before deadline")
	}

	if err := e.supervisor.Drain(ctx); err != nil {
		e.logger.Warn("dispatch units still in flight at shutdown",
			slog.String("error", err.Error()))
	}

	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Error("failed to close cursor store", slog.String("error", err.Error()))
		}
	}

	e.started = false
	e.logger.Info("engine shutdown complete")
	return nil
}

// initCursorStore builds the cursor store named by the configuration.
func (e *Engine) initCursorStore() error {
	switch e.cfg.Cursor.Type {
	case "sqlite":
		store, err := cursor.NewSQLite(e.cfg.Cursor.SQLite.Path)
		if err != nil {
			return fmt.Errorf("create sqlite cursor store: %w", err)
		}
		e.store = store
	default:
		e.store = cursor.NewMemory(e.cfg.Poll.InitialOffset)
	}
	return nil
}

// initClient builds the default getUpdates client from the configuration.
func (e *Engine) initClient() {
	opts := []telegram.ClientOption{}
	if e.cfg.Telegram.BaseURL != "" {
		opts = append(opts, telegram.WithBaseURL(e.cfg.Telegram.BaseURL))
	}
	if e.httpClient != nil {
		opts = append(opts, telegram.WithHTTPClient(e.httpClient))
	}
	e.client = telegram.NewClient(e.cfg.Telegram.Token, opts...)
}
