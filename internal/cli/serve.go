package cli

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/coursedesk/internal/auth"
	"github.com/Shivanand-hulikatti/coursedesk/internal/cache"
	"github.com/Shivanand-hulikatti/coursedesk/internal/config"
	"github.com/Shivanand-hulikatti/coursedesk/internal/handler"
	"github.com/Shivanand-hulikatti/coursedesk/internal/metrics"
	"github.com/Shivanand-hulikatti/coursedesk/internal/service"
	"github.com/Shivanand-hulikatti/coursedesk/internal/tracing"
)

func buildServeCommand(opts *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log, migrate, nil)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply database migrations before serving")
	return cmd
}

// serve wires every layer and blocks until ctx is done. When ready is
// non-nil it receives the bound address once the listener is open.
func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate bool, ready chan<- string) error {
	ctx = log.WithContext(ctx)

	// ── 1. Tracing ───────────────────────────────────────────────────────
	shutdownTracer, err := tracing.InitTracerProvider(cfg.Tracing, log)
	if err != nil {
		return pkgerrors.Wrap(err, "tracing")
	}

	// ── 2. Storage and sessions ──────────────────────────────────────────
	store, err := openStore(ctx, cfg, log, migrate)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return err
	}
	defer store.Close()

	sessions, closeSessions, err := openSessions(ctx, cfg, log)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return err
	}
	defer func() { _ = closeSessions() }()

	// ── 3. Wire up layers ────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	c := cache.New(cache.Options{
		MaxEntries: cfg.Cache.MaxEntries,
		DefaultTTL: cfg.Cache.DefaultTTL,
		Logger:     log.With().Str("component", "cache").Logger(),
		Metrics:    collector,
	})
	svc := service.New(service.Deps{Store: store, Cache: c, Metrics: collector})
	authSvc := auth.NewService(store, sessions, auth.Options{TTL: cfg.Session.TTL})

	hopts := handler.Options{
		Services:     svc,
		Auth:         authSvc,
		Cache:        c,
		Store:        store,
		Logger:       log,
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.Secure,
		CORSOrigin:   cfg.Server.CORSOrigin,
	}
	if cfg.Metrics.Enabled {
		hopts.Metrics = collector
		hopts.MetricsPath = cfg.Metrics.Path
		hopts.MetricsHandler = collector.Handler()
	}

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Handler:      handler.New(hopts).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	lis, err := net.Listen("tcp", ":"+cfg.Server.Port)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return pkgerrors.Wrapf(err, "listen on :%s", cfg.Server.Port)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("server listening")
		if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()
	if ready != nil {
		ready <- lis.Addr().String()
	}

	select {
	case err := <-serveErr:
		_ = shutdownTracer(context.Background())
		return pkgerrors.Wrap(err, "server error")
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	c.Wait()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown failed")
	}
	log.Info().Msg("server stopped")
	return nil
}
