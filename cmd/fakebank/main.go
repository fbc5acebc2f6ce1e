package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facebank/internal/fakebank"
	"facebank/internal/fakebank/cleanup"
	"facebank/internal/platform/config"
	"facebank/internal/platform/httpserver"
	"facebank/internal/platform/logger"
)

// main serves the development double of the remote bank and purges abandoned
// registrations in the background.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("error").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	log.Info("initializing fake bank",
		"addr", cfg.FakeBankAddr,
		"env", cfg.Env,
		"dev_mode", cfg.FakeBankDevOTP,
	)

	bank, err := fakebank.New(fakebank.Config{
		SigningKey: cfg.FakeBankSigningKey,
		BcryptCost: cfg.FakeBankBcryptCost,
		DevMode:    cfg.FakeBankDevOTP,
	}, fakebank.WithLogger(log))
	if err != nil {
		log.Error("failed to build fake bank", "error", err)
		os.Exit(1)
	}

	janitor, err := cleanup.New(bank.Store(), cleanup.WithLogger(log))
	if err != nil {
		log.Error("failed to build cleanup worker", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := janitor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("cleanup worker stopped", "error", err)
		}
	}()

	srv := httpserver.New(cfg.FakeBankAddr, bank.Router())

	log.Info("starting fake bank", "addr", cfg.FakeBankAddr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down fake bank gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("fake bank stopped")
}
