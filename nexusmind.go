package nexusmind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aretw0/nexusmind/internal/logging"
	"github.com/aretw0/nexusmind/internal/runtime"
	"github.com/aretw0/nexusmind/pkg/adapters/memory"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/observability"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/aretw0/nexusmind/pkg/registry"
	"github.com/aretw0/nexusmind/pkg/session"
	"github.com/aretw0/nexusmind/pkg/stages"
)

// Request is the input of a single query run.
type Request = runtime.Request

// ErrInvalidParameters is returned when operational parameters fail validation.
var ErrInvalidParameters = errors.New("invalid operational parameters")

// Engine is the high-level entry point for the NexusMind library.
// It wraps the orchestrator and session persistence behind a small API.
type Engine struct {
	orch      *runtime.Orchestrator
	registry  *registry.Registry
	factory   ports.StageFactory
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	store     ports.SessionStore
	locker    ports.DistributedLocker
	lockTTL   time.Duration
	manager   *session.Manager
	defaults  map[string]any
	newID     func() string
	validate  bool
	overrides map[domain.StageKind]registry.Constructor
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
// Lifecycle events are logged through it in addition to any hooks.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStage replaces the default implementation of one stage.
func WithStage(kind domain.StageKind, fn registry.Constructor) Option {
	return func(e *Engine) {
		if e.overrides == nil {
			e.overrides = make(map[domain.StageKind]registry.Constructor)
		}
		e.overrides[kind] = fn
	}
}

// WithStageFactory replaces the whole stage set. Parameter validation against
// the default stages is skipped, since a custom set may define its own keys.
func WithStageFactory(factory ports.StageFactory) Option {
	return func(e *Engine) {
		e.factory = factory
	}
}

// WithSessionStore persists finished sessions in store. The default is in memory.
func WithSessionStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of session records.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed session locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithDefaultParams sets operational parameters applied to every request.
// Request parameters take precedence key by key.
func WithDefaultParams(params map[string]any) Option {
	return func(e *Engine) {
		e.defaults = maps.Clone(params)
	}
}

// WithIDGenerator overrides how session ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New initializes a new Engine with the default stages and an in-memory store.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{validate: true}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	if eng.factory == nil {
		eng.registry = stages.DefaultRegistry()
		for kind, fn := range eng.overrides {
			if err := eng.registry.Register(kind, fn); err != nil {
				return nil, err
			}
		}
		eng.factory = eng.registry.Factory()
	} else {
		eng.validate = false
	}

	if eng.validate {
		if _, err := stages.DecodeParams(eng.defaults); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
		}
	}

	runtimeOpts := []runtime.Option{
		runtime.WithLifecycleHooks(observability.Chain(observability.LoggingHooks(eng.logger), eng.hooks)),
	}
	if eng.newID != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithIDGenerator(eng.newID))
	}
	orch, err := runtime.New(eng.factory, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	eng.orch = orch

	managerOpts := []session.Option{session.WithLogger(eng.logger), session.WithLockTTL(eng.lockTTL)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	eng.manager = session.NewManager(eng.store, managerOpts...)

	return eng, nil
}

// ProcessQuery runs one query through the pipeline and persists the result.
//
// A halted run is not an error: the returned session carries the halt message
// as its final answer. Errors are returned for an empty query, invalid
// parameters, and persistence failures; in the last case the session is
// returned alongside the error.
func (e *Engine) ProcessQuery(ctx context.Context, req Request) (*domain.Session, error) {
	params := maps.Clone(e.defaults)
	if params == nil {
		params = make(map[string]any, len(req.OperationalParams))
	}
	maps.Copy(params, req.OperationalParams)
	if e.validate {
		if _, err := stages.DecodeParams(params); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
		}
	}
	req.OperationalParams = params

	s, err := e.orch.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := e.manager.Save(ctx, s); err != nil {
		e.logger.Error("failed to persist session", "session_id", s.ID, "err", err)
		return s, fmt.Errorf("persist session %s: %w", s.ID, err)
	}
	return s, nil
}

// Session loads a finished session.
// Returns domain.ErrSessionNotFound for unknown ids.
func (e *Engine) Session(ctx context.Context, id string) (*domain.Session, error) {
	return e.manager.Load(ctx, id)
}

// Sessions lists the ids of stored sessions.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.manager.List(ctx)
}

// DeleteSession removes a stored session. Unknown ids are not an error.
func (e *Engine) DeleteSession(ctx context.Context, id string) error {
	return e.manager.Delete(ctx, id)
}

// Store returns the session store used by the engine.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}
