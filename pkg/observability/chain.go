package observability

import (
	"context"

	"github.com/aretw0/nexusmind/pkg/domain"
)

// Chain combines hooks so that each event reaches every observer, in order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hooks {
		out.OnSessionStart = join(out.OnSessionStart, h.OnSessionStart)
		out.OnStageStart = join(out.OnStageStart, h.OnStageStart)
		out.OnStageFinish = join(out.OnStageFinish, h.OnStageFinish)
		out.OnHalt = join(out.OnHalt, h.OnHalt)
		out.OnSessionFinish = join(out.OnSessionFinish, h.OnSessionFinish)
	}
	return out
}

func join[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
