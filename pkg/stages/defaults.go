package stages

import (
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/aretw0/nexusmind/pkg/registry"
)

// Register adds the default implementation of every stage to r.
func Register(r *registry.Registry) {
	defaults := map[domain.StageKind]registry.Constructor{
		domain.StageInitialization:     func() ports.Stage { return NewInitialization() },
		domain.StageDecomposition:      func() ports.Stage { return NewDecomposition() },
		domain.StageHypothesis:         func() ports.Stage { return NewHypothesis() },
		domain.StageEvidence:           func() ports.Stage { return NewEvidence() },
		domain.StagePruningMerging:     func() ports.Stage { return NewPruningMerging() },
		domain.StageSubgraphExtraction: func() ports.Stage { return NewSubgraphExtraction() },
		domain.StageComposition:        func() ports.Stage { return NewComposition() },
		domain.StageReflection:         func() ports.Stage { return NewReflection() },
	}
	for kind, fn := range defaults {
		// Kinds are all valid and constructors non-nil.
		_ = r.Register(kind, fn)
	}
}

// DefaultRegistry returns a registry filled with the default stages.
func DefaultRegistry() *registry.Registry {
	r := registry.NewRegistry()
	Register(r)
	return r
}

// DefaultFactory returns a factory for the default stages.
func DefaultFactory() ports.StageFactory {
	return DefaultRegistry().Factory()
}
