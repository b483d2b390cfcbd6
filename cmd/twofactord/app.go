package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	module "github.com/dmitrymomot/twofactor/modules/twofactor"
	"github.com/dmitrymomot/twofactor/pkg/clientip"
	"github.com/dmitrymomot/twofactor/pkg/config"
	"github.com/dmitrymomot/twofactor/pkg/email"
	"github.com/dmitrymomot/twofactor/pkg/httpserver"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/pg"
	"github.com/dmitrymomot/twofactor/pkg/provisioning"
	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
	"github.com/dmitrymomot/twofactor/pkg/redis"
	"github.com/dmitrymomot/twofactor/pkg/replay"
	"github.com/dmitrymomot/twofactor/pkg/requestid"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
	"github.com/dmitrymomot/twofactor/svc/twofactor/pgstore"
)

type app struct {
	server  *httpserver.Server
	router  http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newLogger(cfg Config) *slog.Logger {
	return logger.New(
		logger.WithLevelName(cfg.LogLevel),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithEnvironment(cfg.Env, "twofactord"),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	)
}

// build wires the service. Anything opened here is released by app.close.
func build(ctx context.Context, cfg Config, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	sealer, err := secrets.NewSealerFromString(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := twofactor.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	var checks []httpserver.Check

	var repo twofactor.Repository = twofactor.NewMemoryRepository()
	if cfg.Store == storePostgres {
		pgCfg, err := config.Load[pg.Config]()
		if err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := pgstore.Migrate(ctx, pool, pgCfg, log); err != nil {
			return nil, err
		}
		repo = pgstore.New(pool, sealer)
		checks = append(checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
	} else {
		log.WarnContext(ctx, "using in-memory two-factor store, records are lost on restart")
	}

	var (
		limitStore  ratelimiter.Store
		replayGuard replay.Guard
	)
	if cfg.ThrottleStore == storeRedis {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		limitStore = ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix("twofactor:limit:"))
		replayGuard = replay.NewRedisGuard(client, "twofactor:replay:")
		checks = append(checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	} else {
		mem := ratelimiter.NewMemoryStore()
		a.closers = append(a.closers, mem.Close)
		limitStore = mem
		replayGuard = replay.NewMemoryGuard(time.Minute)
	}

	throttle, err := ratelimiter.NewBucket(limitStore, ratelimiter.Config{
		Capacity:       cfg.MaxFailures,
		RefillRate:     1,
		RefillInterval: cfg.FailureRefill,
	})
	if err != nil {
		return nil, err
	}

	remote, err := remoteRenderers(cfg.RemoteQREndpoints)
	if err != nil {
		return nil, err
	}
	builder := provisioning.NewBuilder(
		provisioning.AppendRenderers(remote...),
		provisioning.WithLogger(log),
		provisioning.WithFallbackHook(metrics.ObserveRenderFallback),
	)

	sessions := module.NewHeaderSessions(cfg.SessionTTL)

	opts := []twofactor.Option{
		twofactor.WithSetupTTL(cfg.SetupTTL),
		twofactor.WithWindow(cfg.Window),
		twofactor.WithLogger(log.With(logger.Component("twofactor"))),
		twofactor.WithMetrics(metrics),
		twofactor.WithReplayGuard(replayGuard),
		twofactor.WithThrottle(throttle),
		twofactor.WithBuilder(builder),
	}
	if cfg.Notify {
		sender, err := email.New(cfg.Email)
		if err != nil {
			return nil, err
		}
		opts = append(opts, twofactor.WithNotifier(twofactor.NewEmailNotifier(sender, sessions, cfg.Issuer)))
	}

	lc, err := twofactor.NewLifecycle(repo, sealer, cfg.Issuer, opts...)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, lc.Close)

	svcOpts := []module.Option{module.WithLogger(log)}
	if cfg.VerifyIPLimit > 0 {
		ipLimiter, err := ratelimiter.NewBucket(limitStore, ratelimiter.Config{
			Capacity:       cfg.VerifyIPLimit,
			RefillRate:     cfg.VerifyIPLimit,
			RefillInterval: time.Minute,
		})
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, module.WithVerifyLimiter(ipLimiter))
	}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware(clientip.NewResolver(cfg.TrustedIPHeaders...)),
		middleware.Recoverer,
	)
	r.Get("/health/live", httpserver.Liveness())
	r.Get("/health/ready", httpserver.Readiness(log, 2*time.Second, checks...))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/2fa", module.NewService(lc, sessions, svcOpts...).Handle())

	a.router = r
	a.server = httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return a, nil
}
