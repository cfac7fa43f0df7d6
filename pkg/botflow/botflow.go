// Package botflow provides the public API for embedding the update
// ingestion and dispatch engine. This is the stable surface for external
// consumers; the implementation lives under internal/.
package botflow

import (
	"github.com/botflow/botflow/internal/chain"
	"github.com/botflow/botflow/internal/config"
	"github.com/botflow/botflow/internal/runtime"
	"github.com/botflow/botflow/internal/update"
)

// Engine is the main entry point for running the dispatch engine.
// See internal/runtime.Engine for full documentation.
type Engine = runtime.Engine

// Option is a functional option for configuring an Engine.
type Option = runtime.Option

// New creates an Engine with the given options.
// Example:
//
//	eng, err := botflow.New(
//	    botflow.WithConfigFile("config.yaml"),
//	    botflow.WithSQLiteCursor("./data/cursor.db"),
//	)
var New = runtime.New

// Configuration options
var (
	WithConfigFile   = runtime.WithConfigFile
	WithConfig       = runtime.WithConfig
	WithLogger       = runtime.WithLogger
	WithHTTPClient   = runtime.WithHTTPClient
	WithClient       = runtime.WithClient
	WithCursorStore  = runtime.WithCursorStore
	WithMemoryCursor = runtime.WithMemoryCursor
	WithSQLiteCursor = runtime.WithSQLiteCursor
)

// Config is the engine configuration value.
type Config = config.Config

// LoadConfig reads configuration from a YAML file with BOTFLOW_*
// environment overrides.
var LoadConfig = config.Load

// Update envelope and payload types.
type (
	Update        = update.Update
	Message       = update.Message
	CallbackQuery = update.CallbackQuery
	InlineQuery   = update.InlineQuery
	User          = update.User
	Chat          = update.Chat
)

// Chain primitives: descriptors pair a match predicate with a handler; the
// per-update Context accumulates partial results across the walk.
type (
	Descriptor = chain.Descriptor
	Predicate  = chain.Predicate
	Handler    = chain.Handler
	Context    = chain.Context
	Outcome    = chain.Outcome
)

// NewContext creates an empty per-update context.
var NewContext = chain.NewContext

// Outcome constructors: the control protocol a handler returns.
var (
	Continue = chain.Continue
	Stop     = chain.Stop
	Done     = chain.Done
)

// Predicate builders for common chain shapes.
var (
	Any            = chain.Any
	Command        = chain.Command
	Text           = chain.Text
	TextPrefix     = chain.TextPrefix
	Callback       = chain.Callback
	CallbackPrefix = chain.CallbackPrefix
	Inline         = chain.Inline
	ChannelPost    = chain.ChannelPost
	Not            = chain.Not
	All            = chain.All
)
