package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/config"
	"storefront/handlers"
	"storefront/metrics"
	"storefront/proxy"
	"storefront/session"
	"storefront/storage"
	"storefront/utils"
)

func main() {
	// Load environment variables
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found, continuing")
		}
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting storefront",
		zap.String("env", cfg.App.Env),
		zap.String("storage", cfg.Storage.Driver),
	)

	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		DSN:    storageDSN(cfg),
		TTL:    cfg.Storage.TTL,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	auth := proxy.NewForwarder(cfg.BackendURLs(), cfg.Backend.Timeout, logger.Named("auth"))
	auth.OnAttempt = m.ObserveAttempt
	logger.Info("auth backends", zap.Strings("bases", auth.Bases()))
	// non-auth routes use the primary backend only
	backend := proxy.NewForwarder([]string{cfg.Backend.PrimaryURL}, cfg.Backend.Timeout, logger.Named("backend"))
	backend.OnAttempt = m.ObserveAttempt

	notifier := session.NewNotifier()
	notifier.Subscribe(m.ObserveSession)
	notifier.Subscribe(func(e session.Event) {
		logger.Debug("session event", zap.String("kind", string(e.Kind)), zap.String("client", e.Client))
	})

	deps := &handlers.Deps{
		Auth:               auth,
		Backend:            backend,
		Storage:            store,
		Notifier:           notifier,
		Logger:             logger,
		Origin:             cfg.CORS.Origin,
		SessionTTL:         cfg.Session.TTL,
		ClientCookie:       cfg.Session.Cookie,
		ClientCookieMaxAge: cfg.Storage.TTL,
		SecureCookies:      cfg.Production(),
	}
	if mailer := utils.NewMailer(cfg.Sendgrid); mailer != nil {
		deps.Mailer = mailer
	} else {
		logger.Info("welcome mail disabled, no sendgrid api key")
	}

	mux := http.NewServeMux()
	deps.Register(mux, m.Instrument)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      deps.LogRequests(deps.WithClientID(mux)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler(reg))
	metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", zap.String("addr", srv.Addr))
		return listen(srv)
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", metricsSrv.Addr))
			return listen(metricsSrv)
		})
	}
	if p, ok := store.(storage.Pruner); ok && cfg.Storage.TTL > 0 {
		g.Go(func() error {
			prune(gctx, p, cfg.Storage.TTL, logger)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// prune sweeps idle namespaces until ctx ends.
func prune(ctx context.Context, p storage.Pruner, ttl time.Duration, logger *zap.Logger) {
	interval := min(ttl/24, time.Hour)
	ticker := time.NewTicker(max(interval, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Prune(ctx)
			if err != nil {
				logger.Warn("storage prune failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("pruned idle storage", zap.Int64("rows", n))
			}
		}
	}
}

func storageDSN(cfg *config.Config) string {
	switch cfg.Storage.Driver {
	case storage.DriverRedis:
		return cfg.Redis.URL
	case storage.DriverPostgres:
		return cfg.Database.URL
	}
	return ""
}
