package dependency_container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/admission"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/keygen"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/policy"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/config"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	handlers "github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/handlers/http"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auditlogs"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auth/jwt"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/breaker"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/cache"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/counter"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/distributed"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/limiter"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/load"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/middleware"
	"github.com/sirupsen/logrus"
)

const storePingTimeout = 5 * time.Second

type Container struct {
	Cache               cache.Client
	Store               *counter.MemoryStore
	Janitor             counter.Janitor
	AuditLogsService    auditlogs.Service
	InflightTracker     *load.InflightTracker
	Resolver            policy.Resolver
	KeyGenerator        keygen.Generator
	AdmissionService    admission.Service
	JWTManager          jwt.Manager
	MiddlewareTransport middleware.Transport
	HandlerTransport    handlers.HandlerTransport
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	// Cache overrides the redis client built from Cfg.Redis when the shared
	// store is enabled.
	Cache cache.Client
}

func NewContainer(di ContainerDI) (*Container, error) {
	cfg := di.Cfg
	rl := cfg.RateLimit

	auditLogsService := auditlogs.NewService(di.Logger, rl.SecurityEvents)

	table, err := rl.PolicyTable()
	if err != nil {
		return nil, fmt.Errorf("failed to build rate limit policies: %w", err)
	}
	resolver, err := policy.NewResolver(table)
	if err != nil {
		return nil, fmt.Errorf("failed to build policy resolver: %w", err)
	}

	trusted, err := keygen.ParseTrustedProxies(rl.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid rate_limit.trusted_proxies: %w", err)
	}
	keyGenerator := keygen.NewGenerator(trusted)

	store := counter.NewMemoryStore()
	janitor := counter.NewJanitor(store, di.Logger, auditLogsService, counter.JanitorOptions{
		Interval:        rl.Cleanup.Interval,
		BucketRetention: rl.Cleanup.BucketRetention,
	})

	var (
		windowCounter ratelimit.WindowCounter = store
		logRecorder   ratelimit.LogRecorder   = store
		cacheInstance                         = di.Cache
	)
	if rl.Distributed.Enabled {
		if cacheInstance == nil {
			cacheInstance = cache.NewClient(cache.Config{
				Host:     cfg.Redis.Host,
				Port:     cfg.Redis.Port,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				TLS:      cfg.Redis.TLS,
				PoolSize: cfg.Redis.PoolSize,
			}, di.Logger)
		}
		// An unreachable store only degrades admission to the local store.
		_ = distributed.CheckStore(context.Background(), cacheInstance, storePingTimeout, di.Logger, auditLogsService)

		backend := distributed.NewRedisBackend(cacheInstance.RedisClient(), di.Logger, distributed.Options{
			Timeout:   rl.Distributed.Timeout,
			KeyPrefix: rl.Distributed.KeyPrefix,
			Breaker: breaker.NewCircuitBreaker(
				"shared-counter-store",
				rl.Distributed.BreakerTimeout,
				rl.Distributed.BreakerMaxFailures,
				di.Logger,
			),
		})
		windowCounter = distributed.NewFallbackCounter(backend, store, auditLogsService)
		logRecorder = distributed.NewFallbackRecorder(backend, store, auditLogsService)
		di.Logger.WithField("prefix", rl.Distributed.KeyPrefix).Info("shared counter store enabled")
	}

	inflight := load.NewInflightTracker(rl.Adaptive.MaxInflight)
	admissionService := admission.NewService(resolver, keyGenerator, admission.Limiters{
		FixedWindow:   limiter.NewFixedWindow(windowCounter, nil),
		SlidingWindow: limiter.NewSlidingWindow(logRecorder, nil),
		TokenBucket:   limiter.NewTokenBucket(store, nil),
	}, auditLogsService, di.Logger, admission.Options{
		Enabled:     rl.Enabled,
		AdaptiveAll: rl.Adaptive.Enabled,
		Signal:      inflight,
		MinLimit:    rl.Adaptive.MinLimit,
	})

	var jwtManager jwt.Manager
	if cfg.Server.SecretKey != "" {
		jwtManager = jwt.NewJwtManager(cfg.Server.SecretKey)
	} else {
		di.Logger.Info("server.secret_key not set, bearer tokens are ignored")
	}

	return &Container{
		Cache:            cacheInstance,
		Store:            store,
		Janitor:          janitor,
		AuditLogsService: auditLogsService,
		InflightTracker:  inflight,
		Resolver:         resolver,
		KeyGenerator:     keyGenerator,
		AdmissionService: admissionService,
		JWTManager:       jwtManager,
		MiddlewareTransport: middleware.Transport{
			PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(di.Logger),
			MetricsMiddleware:      middleware.NewMetricsMiddleware(cfg.Metrics.Enabled),
			LoadMiddleware:         middleware.NewLoadMiddleware(inflight),
			IdentityMiddleware:     middleware.NewIdentityMiddleware(di.Logger, jwtManager, cfg.Server.TrustIdentityHeaders),
			RateLimitMiddleware:    middleware.NewRateLimitMiddleware(di.Logger, admissionService, cfg.Server.ExemptPaths),
		},
		HandlerTransport: handlers.HandlerTransport{
			ForwardedHandler:     handlers.NewForwardedHandler(di.Logger, cfg.Server.UpstreamURL, cfg.Server.ProxyTimeout, nil),
			GetVersionHandler:    handlers.NewGetVersionHandler(di.Logger),
			ResolvePolicyHandler: handlers.NewResolvePolicyHandler(di.Logger, resolver),
		},
	}, nil
}

// Close stops the janitor and releases the shared store client and the
// security event logger.
func (c *Container) Close() error {
	c.Janitor.Stop()
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	errs = append(errs, c.AuditLogsService.Close())
	return errors.Join(errs...)
}
