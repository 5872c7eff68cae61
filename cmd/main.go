package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relaypoint/push-service/config"
	"github.com/relaypoint/push-service/internal/broker"
	"github.com/relaypoint/push-service/internal/security"
	httpx "github.com/relaypoint/push-service/internal/transport/http"
	"github.com/relaypoint/push-service/internal/transport/ws"
	"github.com/relaypoint/push-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting push-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- auth boundary ---
	var verifier security.Verifier
	if cfg.Auth.Insecure {
		slog.Warn("auth.insecure is set; tokens are not verified")
		verifier = security.InsecureVerifier{}
	} else {
		verifier, err = security.NewJWTVerifier(cfg.Auth.PublicKeyPath, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.ClockSkew())
		if err != nil {
			log.Fatalf("auth: %v", err)
		}
	}

	// --- broker ---
	b := broker.New(cfg.SendTimeout())

	// --- WS transport ---
	wsServer := ws.NewServer(b, verifier, ws.Config{
		ReadLimit:    cfg.WS.ReadLimit,
		PingInterval: cfg.PingInterval(),
		WriteTimeout: cfg.WriteTimeout(),
	})

	// --- HTTP ---
	handler := httpx.NewHandler(b)
	router := httpx.NewRouter(handler, wsServer, verifier)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- heartbeat sweep (the broker has no timer of its own) ---
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if reaped := b.HeartbeatSweep(cfg.HeartbeatThreshold()); len(reaped) > 0 {
					slog.Info("reaped stale connections", "connIDs", reaped)
				}
			case <-sweepDone:
				return
			}
		}
	}()

	// --- run ---
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	close(sweepDone)

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	b.Shutdown()
	slog.Info("stopped")
}
