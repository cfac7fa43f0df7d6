// Package supervise provides the fault boundaries around update processing:
// each dispatch runs in its own goroutine so one failing update cannot block
// or crash its siblings or the ingestion loop, and ingestion loops restart
// with backoff when they fail outside their own error handling.
package supervise

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/botflow/botflow/internal/dispatch"
	"github.com/botflow/botflow/internal/update"
)

const (
	loopBackoffInitial = time.Second
	loopBackoffMax     = 30 * time.Second
)

// Supervisor isolates per-update dispatch and long-running ingestion loops.
type Supervisor struct {
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// New creates a supervisor around the given dispatcher.
func New(dispatcher *dispatch.Dispatcher, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{dispatcher: dispatcher, logger: logger}
}

// Dispatch processes the update in an isolated goroutine and returns
// immediately. A fault is logged with the update id and faulting chain and
// is never retried; other updates are unaffected. Completion order across
// concurrent dispatches is not guaranteed.
func (s *Supervisor) Dispatch(ctx context.Context, u *update.Update) {
	runID := uuid.NewString()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("dispatch unit panic",
					slog.Int64("update_id", u.ID),
					slog.String("run_id", runID),
					slog.String("fault", fmt.Sprintf("%v", r)))
			}
		}()

		res := s.dispatcher.Dispatch(ctx, u)
		if res.Fault != nil {
			s.logger.Error("dispatch faulted",
				slog.Int64("update_id", u.ID),
				slog.String("run_id", runID),
				slog.String("kind", string(u.Kind())),
				slog.String("fault", res.Fault.Error()))
			return
		}
		s.logger.Debug("dispatch complete",
			slog.Int64("update_id", u.ID),
			slog.String("run_id", runID),
			slog.Int("matched", len(res.Matched)),
			slog.String("termination", res.Termination.String()))
	}()
}

// Drain blocks until all in-flight dispatch goroutines finish or ctx
// expires. Used during shutdown.
func (s *Supervisor) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain dispatch units: %w", ctx.Err())
	}
}

// RunLoop runs an ingestion loop, restarting it after a capped exponential
// backoff whenever it returns an error or panics. The loop owns its cursor;
// a restart re-enters with the cursor value preserved. RunLoop returns when
// ctx is cancelled or the loop returns nil.
func (s *Supervisor) RunLoop(ctx context.Context, name string, loop func(context.Context) error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = loopBackoffInitial
	bo.MaxInterval = loopBackoffMax
	bo.MaxElapsedTime = 0 // retry forever

	for {
		err := runSafely(ctx, loop)
		if ctx.Err() != nil {
			s.logger.Info("ingestion loop stopped", slog.String("source", name))
			return
		}
		if err == nil {
			s.logger.Info("ingestion loop exited", slog.String("source", name))
			return
		}

		wait := bo.NextBackOff()
		s.logger.Error("ingestion loop failed, restarting",
			slog.String("source", name),
			slog.String("error", err.Error()),
			slog.Duration("backoff", wait))

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			s.logger.Info("ingestion loop stopped", slog.String("source", name))
			return
		}
	}
}

// runSafely invokes the loop body, converting a panic into an error so the
// supervisor can restart it.
func runSafely(ctx context.Context, loop func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return loop(ctx)
}
