package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"certverify/internal/chain"
	"certverify/internal/credential"
	"certverify/internal/platform/config"
	"certverify/internal/platform/health"
	"certverify/internal/platform/httpserver"
	"certverify/internal/platform/logger"
	"certverify/internal/platform/metrics"
	httptransport "certverify/internal/transport/http"
	"certverify/internal/verify"
	verifyhandler "certverify/internal/verify/handler"
	verifymetrics "certverify/internal/verify/metrics"
	"certverify/internal/verify/tracer"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	// Best-effort: deployments configure through the environment directly.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing certverify",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"issuance_api", cfg.IssuanceBaseURL,
		"contract", cfg.ContractAddress,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	registry, err := chain.Dial(ctx, cfg.ChainRPCURL, cfg.ContractAddress)
	cancel()
	if err != nil {
		log.Error("failed to connect to chain rpc", "error", err)
		os.Exit(1)
	}
	defer registry.Close()

	fetcher := credential.NewFetcher(cfg.IssuanceBaseURL, cfg.IssuanceAPIKey, cfg.IssuanceSecret,
		credential.WithLogger(log))

	service := verify.New(
		fetcher,
		verify.NewJWTVerifier(
			verify.WithJWTLogger(log),
			verify.WithJWTHTTPClient(&http.Client{Timeout: cfg.CheckTimeout}),
		),
		verify.NewOnChainVerifier(registry, verify.WithOnChainLogger(log)),
		verify.NewShapefileVerifier(verify.WithShapefileLogger(log)),
		verify.WithLogger(log),
		verify.WithMetrics(verifymetrics.New()),
		verify.WithTracer(tracer.NewOTel()),
		verify.WithCheckTimeout(cfg.CheckTimeout),
	)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("chain_rpc", registry.Ping)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(),
		Verify:  verifyhandler.New(service, log),
		Health:  healthHandler,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
