package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesdash/internal/api"
	"salesdash/internal/config"
	"salesdash/internal/engine"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// The API is live immediately and answers 503 until the dataset is in.
	session := api.NewSession(nil)
	e := api.NewServer(api.ServerOptions{
		MaxUploadSize: cfg.MaxUploadSize,
		UploadRate:    cfg.RateLimit,
		CSVEncoding:   cfg.CSVEncoding,
	}, session, logger)

	go loadDataset(cfg, session, logger)

	go func() {
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()
	logger.Info("server started", slog.String("address", cfg.Address()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("server exiting")
}

// loadDataset fills the session from the configured file, or the sample
// dataset when no file is configured or it cannot be read.
func loadDataset(cfg *config.Config, session *api.Session, logger *slog.Logger) {
	if cfg.DataPath == "" {
		session.Replace(engine.SampleStore())
		logger.Info("no data path configured, serving sample dataset")
		return
	}

	t0 := time.Now()
	records, err := engine.LoadFile(cfg.DataPath, engine.LoadOptions{Encoding: cfg.CSVEncoding})
	if err != nil {
		logger.Error("dataset load failed, serving sample dataset",
			slog.String("path", cfg.DataPath),
			slog.String("error", err.Error()))
		session.Replace(engine.SampleStore())
		return
	}

	store := engine.NewRecordStore(records, cfg.DataPath)
	session.Replace(store)
	logger.Info("dataset loaded",
		slog.String("path", cfg.DataPath),
		slog.Int("rows", store.Len()),
		slog.String("fingerprint", store.Fingerprint()),
		slog.Duration("elapsed", time.Since(t0)))
}
