package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/careassist/careassist/internal/config"
	"github.com/careassist/careassist/internal/devbackend"
	"github.com/careassist/careassist/internal/server"
	"github.com/careassist/careassist/internal/session/authapi"
	telemetryotel "github.com/careassist/careassist/internal/telemetry/otel"
	"github.com/careassist/careassist/internal/tenant/directory"
	tenantservice "github.com/careassist/careassist/internal/tenant/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}

	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()
	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "careassist", cfg.OTLPInsecure)
	if err != nil {
		stdlog.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	directoryURL := cfg.DirectoryBaseURL
	authURL := cfg.AuthBaseURL

	var dev http.Handler
	if cfg.DevBackend {
		backend, err := devbackend.New()
		if err != nil {
			stdlog.Fatalf("dev backend: %v", err)
		}
		dev = backend.Router()
		// Point the upstream clients at the in-process /dev mount.
		base := "http://" + loopbackHostPort(cfg.HTTPAddr) + "/dev"
		directoryURL = base
		authURL = base
		log.Warn().Str("base", base).Msg("dev backend enabled, serving directory and auth in-process")
	}

	upstreamTimeout := cfg.UpstreamTimeoutDuration()
	tenants, err := tenantservice.NewConfigStore(
		directory.NewHTTPClient(directoryURL, upstreamTimeout),
		cfg.TenantCacheMax,
		cfg.TenantCacheTTLDuration(),
	)
	if err != nil {
		stdlog.Fatalf("tenant store: %v", err)
	}
	defer tenants.Close()

	handler := server.New(server.Options{
		Tenants:       tenants,
		Auth:          authapi.NewHTTPClient(authURL, upstreamTimeout),
		SecureCookies: cfg.SecureCookies,
		CookieTTL:     cfg.SessionCookieTTLDuration(),
		Access:        telemetryotel.NewAccessEmitter(providers.LoggerProvider),
		DevBackend:    dev,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("site server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down site server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("site server stopped")
}

// loopbackHostPort turns a listen address like ":8080" into a dialable
// loopback host:port.
func loopbackHostPort(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	return addr
}
