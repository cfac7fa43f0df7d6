// Package chain defines the handler pipeline primitives: descriptors that
// pair a match predicate with a handler, the update-scoped context threaded
// between handlers, and the continue/stop/done outcome protocol.
package chain

import (
	"context"

	"github.com/botflow/botflow/internal/update"
)

// Predicate decides whether a descriptor applies to an update. Predicates
// must not mutate the update.
type Predicate func(u *update.Update) bool

// Handler processes a matched update. It may perform external side effects;
// those are the handler's own responsibility. A returned error, a panic, or
// an invalid Outcome is treated as a handler fault and terminates the walk
// for that update only.
type Handler func(ctx context.Context, u *update.Update, c *Context) (Outcome, error)

// Descriptor is one registered chain: a named predicate/handler pair.
// Descriptors are registered once at boot and never modified afterward.
type Descriptor struct {
	Name   string
	Match  Predicate
	Handle Handler
}

// Context is the update-scoped accumulator threaded through a dispatch walk.
// It carries partial results between chains (extracted command arguments,
// parsed entities, and so on). It is created fresh per update and must never
// be shared across updates or goroutines.
type Context struct {
	values map[string]any
}

// NewContext creates an empty per-update context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set stores a value under key, overwriting any previous value.
func (c *Context) Set(key string, v any) {
	c.values[key] = v
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the string stored under key, or "" if absent or not a
// string.
func (c *Context) GetString(key string) string {
	v, ok := c.values[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Len returns the number of stored values.
func (c *Context) Len() int { return len(c.values) }

// Kind identifies an Outcome variant. The zero value is invalid so that a
// forgotten return surfaces as a handler fault instead of silently
// continuing the walk.
type Kind int

const (
	KindInvalid Kind = iota
	KindContinue
	KindStop
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindStop:
		return "stop"
	case KindDone:
		return "done"
	default:
		return "invalid"
	}
}

// Outcome is the control signal a handler returns: Continue proceeds to the
// next matching descriptor with the returned context, Stop aborts the walk,
// Done marks deliberate completion. Stop and Done are equivalent for control
// flow and distinguished only in logs.
type Outcome struct {
	kind Kind
	ctx  *Context
}

// Continue proceeds to the next matching descriptor, replacing the walk
// context with c. Passing nil keeps the current context.
func Continue(c *Context) Outcome { return Outcome{kind: KindContinue, ctx: c} }

// Stop aborts the walk for this update. No further descriptors run.
func Stop(c *Context) Outcome { return Outcome{kind: KindStop, ctx: c} }

// Done terminates the walk, marking deliberate completion.
func Done(c *Context) Outcome { return Outcome{kind: KindDone, ctx: c} }

// Kind returns the outcome variant.
func (o Outcome) Kind() Kind { return o.kind }

// Context returns the context carried by the outcome, possibly nil.
func (o Outcome) Context() *Context { return o.ctx }

// Valid reports whether the outcome was produced by one of the constructors.
func (o Outcome) Valid() bool {
	return o.kind == KindContinue || o.kind == KindStop || o.kind == KindDone
}
