// Package source provides the two ingestion strategies behind one interface:
// a cursor-based long poller and a push-based webhook receiver. Sources
// produce updates; the supervisor isolates their dispatch.
package source

import (
	"context"
	"time"

	"github.com/botflow/botflow/internal/update"
)

// Source is a long-lived ingestion loop. Run blocks until ctx is cancelled
// or the loop fails; the supervisor restarts failed loops with backoff.
type Source interface {
	Name() string
	Run(ctx context.Context) error
}

// UpdateClient is the poll fetch contract to the API collaborator.
type UpdateClient interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration, allowed []string) ([]update.Update, error)
}

// Sink accepts updates for isolated dispatch. Dispatch must return promptly;
// processing happens on the sink's own goroutines.
type Sink interface {
	Dispatch(ctx context.Context, u *update.Update)
}
