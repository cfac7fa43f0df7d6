// Package dispatch implements the core walk state machine: for one update,
// visit registered chain descriptors in order, applying match/handle
// semantics and the continue/stop/done protocol.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/botflow/botflow/internal/chain"
	"github.com/botflow/botflow/internal/update"
)

// Termination records how a dispatch walk ended.
type Termination int

const (
	// Exhausted means every descriptor was visited without a terminal
	// outcome; this covers the zero-matches case, which is a valid no-op.
	Exhausted Termination = iota
	// Stopped means a handler returned chain.Stop.
	Stopped
	// Completed means a handler returned chain.Done.
	Completed
	// Faulted means a handler faulted and the walk was cut short.
	Faulted
)

func (t Termination) String() string {
	switch t {
	case Stopped:
		return "stopped"
	case Completed:
		return "completed"
	case Faulted:
		return "faulted"
	default:
		return "exhausted"
	}
}

// Result describes one finished walk. With pure handlers and an identical
// registry, re-dispatching the same update produces an identical Result.
type Result struct {
	UpdateID    int64
	Matched     []string // descriptor names that matched and ran, in order
	Termination Termination
	Fault       error // non-nil iff Termination == Faulted
}

// HandlerFault wraps a failure raised by a chain handler. It is isolated to
// the update being walked and never retried.
type HandlerFault struct {
	Descriptor string
	Err        error
}

func (f *HandlerFault) Error() string {
	return fmt.Sprintf("chain %s handler fault: %v", f.Descriptor, f.Err)
}

func (f *HandlerFault) Unwrap() error { return f.Err }

// PredicateFault wraps a failure raised by a match predicate. The descriptor
// is treated as a non-match and the walk continues.
type PredicateFault struct {
	Descriptor string
	Err        error
}

func (f *PredicateFault) Error() string {
	return fmt.Sprintf("chain %s predicate fault: %v", f.Descriptor, f.Err)
}

func (f *PredicateFault) Unwrap() error { return f.Err }

// Dispatcher walks updates through a frozen chain registry.
type Dispatcher struct {
	registry *chain.Registry
	logger   *slog.Logger
}

// New creates a dispatcher over the given registry.
func New(registry *chain.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch walks one update through the registry in registration order.
//
// A matching descriptor's handler runs with the accumulated walk context;
// chain.Continue replaces the context and proceeds, chain.Stop and
// chain.Done terminate the walk immediately. A predicate fault is logged and
// treated as a non-match. A handler fault terminates the walk for this
// update only; the faulted descriptor is never re-entered or retried.
func (d *Dispatcher) Dispatch(ctx context.Context, u *update.Update) Result {
	res := Result{UpdateID: u.ID}
	wc := chain.NewContext()

	for _, desc := range d.registry.Snapshot() {
		matched, perr := evalPredicate(desc, u)
		if perr != nil {
			fault := &PredicateFault{Descriptor: desc.Name, Err: perr}
			d.logger.Warn("chain predicate fault, treating as non-match",
				slog.Int64("update_id", u.ID),
				slog.String("chain", desc.Name),
				slog.String("fault", fault.Error()))
			continue
		}
		if !matched {
			continue
		}

		res.Matched = append(res.Matched, desc.Name)

		out, herr := invokeHandler(ctx, desc, u, wc)
		if herr == nil && !out.Valid() {
			herr = fmt.Errorf("invalid outcome (handlers must return chain.Continue, chain.Stop, or chain.Done)")
		}
		if herr != nil {
			res.Termination = Faulted
			res.Fault = &HandlerFault{Descriptor: desc.Name, Err: herr}
			return res
		}

		switch out.Kind() {
		case chain.KindContinue:
			if next := out.Context(); next != nil {
				wc = next
			}
		case chain.KindStop:
			res.Termination = Stopped
			return res
		case chain.KindDone:
			res.Termination = Completed
			return res
		}
	}

	res.Termination = Exhausted
	return res
}

// evalPredicate runs a match predicate, converting a panic into a fault so a
// bad predicate cannot crash the walk.
func evalPredicate(d chain.Descriptor, u *update.Update) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Match(u), nil
}

// invokeHandler runs a chain handler, converting a panic into a fault.
func invokeHandler(ctx context.Context, d chain.Descriptor, u *update.Update, c *chain.Context) (out chain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = chain.Outcome{}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Handle(ctx, u, c)
}
