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

	"github.com/docufield/receipt-lens/internal/common"
	"github.com/docufield/receipt-lens/internal/docintel"
	"github.com/docufield/receipt-lens/internal/export"
	"github.com/docufield/receipt-lens/internal/mapper"
	"github.com/docufield/receipt-lens/internal/receipts"
	"github.com/docufield/receipt-lens/internal/repository"
	"github.com/docufield/receipt-lens/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool, logger); err != nil {
		logger.Error("failed to prepare schema", "error", err)
		os.Exit(1)
	}

	analyzer, err := docintel.NewClient(docintel.Config{
		Endpoint:     cfg.Analysis.Endpoint,
		APIKey:       cfg.Analysis.APIKey,
		Timeout:      cfg.Analysis.Timeout,
		PollInterval: cfg.Analysis.PollInterval,
	}, logger)
	if err != nil {
		logger.Error("failed to create analysis client", "error", err)
		os.Exit(1)
	}

	receiptRepo := repository.NewReceiptRepository(pool, logger)
	svc := receipts.NewService(analyzer, mapper.New(mapper.Config{}), receiptRepo, cfg.Analysis.ModelID, logger)
	exporter := export.NewService(receiptRepo, logger)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.New(svc, exporter, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
}
