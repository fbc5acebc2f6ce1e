package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"facebank/internal/auth/device"
	"facebank/internal/auth/service"
	"facebank/internal/auth/workers/verifier"
	"facebank/internal/bank/client"
	"facebank/internal/capture"
	"facebank/internal/controller"
	"facebank/internal/dashboard"
	"facebank/internal/platform/config"
	"facebank/internal/platform/health"
	"facebank/internal/platform/httpserver"
	"facebank/internal/platform/logger"
	"facebank/internal/platform/metrics"
	"facebank/internal/platform/tracer"
	httptransport "facebank/internal/transport/http"
	"facebank/pkg/platform/circuit"
)

// main wires the bank client, the session controller and the local UI bridge, then
// serves the bridge until interrupted.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("error").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	log.Info("initializing facebank",
		"addr", cfg.ListenAddr,
		"bank_url", cfg.BankURL,
		"verify_interval", cfg.VerifyInterval,
		"device_binding", cfg.DeviceBinding,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var tr tracer.Tracer = tracer.NewNoop()
	if cfg.TracingEnabled {
		tr = tracer.NewOTel()
	}

	bankClient, err := client.New(client.Config{
		BaseURL: cfg.BankURL,
		Timeout: cfg.RequestTimeout,
	}, client.WithLogger(log), client.WithTracer(tr), client.WithMetrics(m))
	if err != nil {
		log.Error("failed to build bank client", "error", err)
		os.Exit(1)
	}

	auth, err := service.New(bankClient, service.WithLogger(log), service.WithTracer(tr), service.WithMetrics(m))
	if err != nil {
		log.Error("failed to build authenticator", "error", err)
		os.Exit(1)
	}

	camera, err := capture.NewDevice(capture.NewFileProvider(cfg.CapturePath), capture.WithLogger(log))
	if err != nil {
		log.Error("failed to build capture device", "error", err)
		os.Exit(1)
	}

	ctrl, err := controller.New(controller.Deps{
		Registrar:     bankClient,
		Authenticator: auth,
		Verifier:      bankClient,
		Camera:        camera,
	},
		controller.WithLogger(log),
		controller.WithTracer(tr),
		controller.WithMetrics(m),
		controller.WithSchedulerOptions(verifier.WithInterval(cfg.VerifyInterval)),
	)
	if err != nil {
		log.Error("failed to build session controller", "error", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	breaker := circuit.New("dashboard_reads", circuit.WithFailureThreshold(cfg.BreakerFailures))
	dash, err := dashboard.New(bankClient, ctrl,
		dashboard.WithLogger(log),
		dashboard.WithTracer(tr),
		dashboard.WithMetrics(m),
		dashboard.WithBreaker(breaker),
	)
	if err != nil {
		log.Error("failed to build dashboard", "error", err)
		os.Exit(1)
	}

	checks := health.New(cfg.Env)
	checks.RegisterCheck("bank", bankClient.Health)

	handler := httptransport.New(ctrl, dash, device.NewBinder(cfg.DeviceBinding), log)
	router := httptransport.NewRouter(handler, checks, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log)

	srv := httpserver.New(cfg.ListenAddr, router)

	log.Info("starting bridge", "addr", cfg.ListenAddr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down bridge gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("bridge stopped")
}
