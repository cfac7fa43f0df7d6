package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/botflow/botflow/internal/telemetry"
	"github.com/botflow/botflow/pkg/botflow"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitTracer("botflow", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	eng, err := botflow.New(
		botflow.WithConfigFile("config.yaml"),
		botflow.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	registerChains(eng, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping engine")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := eng.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// registerChains installs a minimal reference chain set. Embedding
// applications register their own chains against botflow.Engine instead of
// running this binary.
func registerChains(eng *botflow.Engine, logger *slog.Logger) {
	must := func(err error) {
		if err != nil {
			log.Fatalf("Failed to register chain: %v", err)
		}
	}

	must(eng.Register(botflow.Descriptor{
		Name:  "start",
		Match: botflow.Command("start"),
		Handle: func(ctx context.Context, u *botflow.Update, c *botflow.Context) (botflow.Outcome, error) {
			logger.Info("start command",
				slog.Int64("update_id", u.ID),
				slog.Int64("chat_id", u.Message.Chat.ID))
			return botflow.Done(c), nil
		},
	}))

	must(eng.Register(botflow.Descriptor{
		Name:  "log-text",
		Match: botflow.Text(),
		Handle: func(ctx context.Context, u *botflow.Update, c *botflow.Context) (botflow.Outcome, error) {
			c.Set("text", u.Message.Text)
			return botflow.Continue(c), nil
		},
	}))

	must(eng.Register(botflow.Descriptor{
		Name:  "fallthrough",
		Match: botflow.Any(),
		Handle: func(ctx context.Context, u *botflow.Update, c *botflow.Context) (botflow.Outcome, error) {
			logger.Debug("unrouted update",
				slog.Int64("update_id", u.ID),
				slog.String("kind", string(u.Kind())),
				slog.String("text", c.GetString("text")))
			return botflow.Stop(c), nil
		},
	}))
}
