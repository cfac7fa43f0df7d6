package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/botflow/botflow/internal/server"
	"github.com/botflow/botflow/internal/update"
)

const (
	// secretTokenHeader is the header Telegram sends when a secret token was
	// configured with setWebhook.
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

	maxPayloadBytes = 1 << 20 // Bot API payloads are far below this

	ackTimeout = 5 * time.Second
)

// Webhook accepts pushed single-update deliveries over HTTP.
//
// Every delivery is acknowledged immediately after hand-off, never after
// handler completion, because the pusher enforces its own delivery timeout
// and retries slow acks, which would duplicate delivery. Push mode has no
// cursor; deduplicating the pusher's at-least-once retries is left to the
// application's handlers.
type Webhook struct {
	sink   Sink
	logger *slog.Logger
	addr   string
	path   string
	secret string

	// baseCtx outlives individual requests so dispatch goroutines are not
	// cancelled when the delivery is acknowledged.
	baseCtx context.Context
}

// WebhookConfig configures a Webhook.
type WebhookConfig struct {
	Sink   Sink
	Logger *slog.Logger
	Port   int
	Path   string // defaults to /telegram/webhook
	Secret string // optional secret token; mismatches get 401
}

// NewWebhook creates a webhook receiver.
func NewWebhook(cfg WebhookConfig) *Webhook {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Path == "" {
		cfg.Path = "/telegram/webhook"
	}
	return &Webhook{
		sink:    cfg.Sink,
		logger:  cfg.Logger,
		addr:    fmt.Sprintf(":%d", cfg.Port),
		path:    cfg.Path,
		secret:  cfg.Secret,
		baseCtx: context.Background(),
	}
}

// Name implements Source.
func (wh *Webhook) Name() string { return "webhook" }

// Handler builds the webhook HTTP handler with its middleware stack.
func (wh *Webhook) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(server.RequestIDMiddleware)
	r.Use(server.LoggingMiddleware(wh.logger))
	r.Use(server.TimeoutMiddleware(ackTimeout))
	r.Use(chimw.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "botflow-webhook")
	})

	r.Post(wh.path, wh.handleDeliver)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// Run serves the webhook endpoint until ctx is cancelled.
func (wh *Webhook) Run(ctx context.Context) error {
	wh.baseCtx = ctx

	srv := &http.Server{
		Addr:         wh.addr,
		Handler:      wh.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		wh.logger.Info("webhook listening",
			slog.String("addr", wh.addr),
			slog.String("path", wh.path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown webhook server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server: %w", err)
	}
}

// handleDeliver decodes exactly one update and hands it off for isolated
// dispatch. Malformed payloads are acknowledged anyway, with the decode error
// logged, since the pusher would only retry an unparseable payload forever.
func (wh *Webhook) handleDeliver(w http.ResponseWriter, r *http.Request) {
	if wh.secret != "" && r.Header.Get(secretTokenHeader) != wh.secret {
		http.Error(w, "invalid secret token", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		server.AddError(r.Context(), err)
		w.WriteHeader(http.StatusOK)
		return
	}

	u, err := update.Decode(body)
	if err != nil {
		wh.logger.Error("webhook payload decode failed",
			slog.String("request_id", server.GetRequestID(r.Context())),
			slog.String("error", err.Error()))
		server.AddError(r.Context(), err)
		w.WriteHeader(http.StatusOK)
		return
	}

	server.AddLogField(r.Context(), "update_id", strconv.FormatInt(u.ID, 10))
	wh.sink.Dispatch(wh.baseCtx, u)
	w.WriteHeader(http.StatusOK)
}
