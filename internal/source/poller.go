package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/botflow/botflow/internal/cursor"
	"github.com/botflow/botflow/internal/telegram"
)

const (
	pollBackoffInitial = time.Second
	pollBackoffMax     = 30 * time.Second
)

// Poller fetches update batches since the cursor in an unbounded loop.
//
// Updates are handed off to the sink in ascending id order; the cursor
// advances to lastId+1 only after the whole batch is handed off, never after
// a transport failure. Hand-off is not completion: a crash after hand-off
// but before handlers finish will not redeliver the batch on restart. A
// crash between fetch and hand-off loses the fetched batch unless the
// source redelivers it; that is a known limitation of pull mode.
type Poller struct {
	client  UpdateClient
	sink    Sink
	store   cursor.Store
	logger  *slog.Logger
	timeout time.Duration
	allowed []string

	backoffInitial time.Duration
	backoffMax     time.Duration

	offset int64
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Client  UpdateClient
	Sink    Sink
	Store   cursor.Store
	Logger  *slog.Logger
	Timeout time.Duration // long-poll wait, defaults to 30s
	Allowed []string      // allowed_updates pass-through, empty means all

	// Retry backoff bounds for transport failures. Zero values use the
	// package defaults; tests shrink them.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// NewPoller creates a poller.
func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = pollBackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = pollBackoffMax
	}
	return &Poller{
		client:         cfg.Client,
		sink:           cfg.Sink,
		store:          cfg.Store,
		logger:         cfg.Logger,
		timeout:        cfg.Timeout,
		allowed:        cfg.Allowed,
		backoffInitial: cfg.BackoffInitial,
		backoffMax:     cfg.BackoffMax,
	}
}

// Name implements Source.
func (p *Poller) Name() string { return "poller" }

// Run executes the poll loop until ctx is cancelled. Transport failures back
// off exponentially (capped) and retry the same offset; rate limiting waits
// the server-specified delay. An empty batch re-polls immediately; the
// long-poll timeout already paces the loop.
func (p *Poller) Run(ctx context.Context) error {
	offset, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}
	p.offset = offset

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.backoffInitial
	bo.MaxInterval = p.backoffMax
	bo.MaxElapsedTime = 0

	p.logger.Info("poller started",
		slog.Int64("offset", p.offset),
		slog.Duration("timeout", p.timeout))

	for {
		if ctx.Err() != nil {
			return nil
		}

		batch, err := p.client.GetUpdates(ctx, p.offset, p.timeout, p.allowed)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			var rl *telegram.RateLimitError
			if errors.As(err, &rl) {
				p.logger.Warn("rate limited", slog.Duration("retry_after", rl.RetryAfter))
				if !sleep(ctx, rl.RetryAfter) {
					return nil
				}
				continue
			}

			wait := bo.NextBackOff()
			p.logger.Error("poll failed, retrying same offset",
				slog.Int64("offset", p.offset),
				slog.String("error", err.Error()),
				slog.Duration("backoff", wait))
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}

		bo.Reset()
		if len(batch) == 0 {
			continue
		}

		seen := make(map[int64]struct{}, len(batch))
		var last int64
		for i := range batch {
			u := &batch[i]
			if _, dup := seen[u.ID]; dup {
				// A well-behaved source never sends duplicates in one
				// batch; the cursor still advances past the id to avoid
				// a redelivery loop.
				p.logger.Warn("duplicate update id in batch, dispatching once",
					slog.Int64("update_id", u.ID))
				if u.ID > last {
					last = u.ID
				}
				continue
			}
			seen[u.ID] = struct{}{}

			p.sink.Dispatch(ctx, u)
			if u.ID > last {
				last = u.ID
			}
		}

		p.offset = last + 1
		if err := p.store.Save(ctx, p.offset); err != nil {
			p.logger.Warn("persist cursor failed",
				slog.Int64("offset", p.offset),
				slog.String("error", err.Error()))
		}
	}
}

// sleep waits for d or until ctx is done, reporting whether the wait ran to
// completion.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
