package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/nexusmind"
	"github.com/aretw0/nexusmind/internal/adapters/file"
	"github.com/aretw0/nexusmind/internal/config"
	"github.com/aretw0/nexusmind/pkg/adapters/memory"
	"github.com/aretw0/nexusmind/pkg/adapters/redis"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/observability"
	"github.com/aretw0/nexusmind/pkg/persistence/middleware"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Resources bundles an engine with what was opened to build it.
type Resources struct {
	Engine  *nexusmind.Engine
	Metrics *prometheus.Registry // Nil when metrics are disabled
	closers []func() error
}

// Close releases store connections.
func (r *Resources) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// CreateEngine initializes an engine from the application config.
// Extra hooks (e.g. an SSE stream) run after logging, metrics and tracing.
func CreateEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...domain.LifecycleHooks) (*Resources, error) {
	res := &Resources{}

	store, locker, err := openStore(ctx, cfg, res)
	if err != nil {
		res.Close()
		return nil, err
	}
	store, err = wrapStore(cfg, store)
	if err != nil {
		res.Close()
		return nil, err
	}

	var hooks []domain.LifecycleHooks
	if cfg.Telemetry.Metrics {
		res.Metrics = prometheus.NewRegistry()
		m, err := observability.NewMetrics(res.Metrics)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		hooks = append(hooks, m.Hooks())
	}
	if cfg.Telemetry.Tracing {
		tracer, err := newTracer(cfg, res)
		if err != nil {
			res.Close()
			return nil, err
		}
		hooks = append(hooks, observability.NewTracer(tracer).Hooks())
	}
	hooks = append(hooks, extra...)

	opts := []nexusmind.Option{
		nexusmind.WithLogger(logger),
		nexusmind.WithLifecycleHooks(observability.Chain(hooks...)),
		nexusmind.WithSessionStore(store),
		nexusmind.WithDefaultParams(cfg.Pipeline.Params),
		nexusmind.WithLockTTL(cfg.Store.LockTTL),
	}
	if locker != nil {
		opts = append(opts, nexusmind.WithLocker(locker))
	}

	engine, err := nexusmind.New(opts...)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	res.Engine = engine
	logger.Debug("engine ready", "store", cfg.Store.Kind, "metrics", cfg.Telemetry.Metrics, "tracing", cfg.Telemetry.Tracing)
	return res, nil
}

// newTracer returns a tracer from the global provider, or from a private
// provider that prints spans to stderr.
func newTracer(cfg *config.Config, res *Resources) (trace.Tracer, error) {
	if cfg.Telemetry.TraceExporter != config.TraceStdout {
		// Without an SDK installed the global provider is a no-op.
		return otel.Tracer(observability.TracerName), nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	res.closers = append(res.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	})
	return tp.Tracer(observability.TracerName), nil
}

// openStore selects the session store. Redis also provides a distributed locker.
func openStore(ctx context.Context, cfg *config.Config, res *Resources) (ports.SessionStore, ports.DistributedLocker, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreFile:
		return file.New(cfg.Store.Path), nil, nil
	case config.StoreRedis:
		rc := cfg.Store.Redis
		var opts []redis.Option
		if rc.Prefix != "" {
			opts = append(opts, redis.WithPrefix(rc.Prefix))
		}
		if rc.TTL > 0 {
			opts = append(opts, redis.WithTTL(rc.TTL))
		}
		store := redis.New(rc.Addr, rc.Password, rc.DB, opts...)
		res.closers = append(res.closers, store.Close)
		if err := store.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", rc.Addr, err)
		}
		prefix := rc.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		return store, redis.NewLocker(store.Client(), prefix), nil
	}
	return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
}

// wrapStore applies PII masking (outermost) and encryption when configured.
func wrapStore(cfg *config.Config, store ports.SessionStore) (ports.SessionStore, error) {
	var mws []middleware.Middleware
	if len(cfg.PII.Patterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PII.Patterns))
	}
	active, fallback, err := cfg.EncryptionKeys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return middleware.Chain(store, mws...), nil
}
