package stages

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
)

// Initial context key holding extra disciplinary tags for the root.
const ContextDisciplinaryTags = "disciplinary_tags"

const rootLayer = "root_layer"

// Initialization seeds the root node from the query.
type Initialization struct {
	BaseStage
}

// NewInitialization creates the default Initialization stage.
func NewInitialization() *Initialization {
	return &Initialization{BaseStage: NewBaseStage(domain.StageInitialization)}
}

func (st *Initialization) Execute(_ context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
	query := strings.TrimSpace(s.Query)
	if query == "" {
		return &ports.StageOutput{
			Result:       &domain.InitializationResult{Error: "query is empty"},
			ErrorMessage: "cannot initialize a graph for an empty query",
		}, nil
	}

	p, err := st.Params(s)
	if err != nil {
		return nil, err
	}

	tags := slices.Clone(p.DefaultDisciplinaryTags)
	tags = append(tags, extraTags(s.Context.InitialContext)...)
	slices.Sort(tags)
	tags = slices.Compact(tags)

	root := graph.NewNode(newID("root"), "Task Understanding", graph.NodeTypeRoot)
	root.Metadata.Description = query
	root.Metadata.Confidence = graph.UniformConfidence(p.InitialConfidence)
	root.Metadata.Attribution = attribution(st.Kind().DisplayName())
	root.Metadata.Interdisciplinary = &graph.InterdisciplinaryInfo{DisciplinaryTags: tags}
	root.Metadata.LayerID = rootLayer
	root.Metadata.ImpactScore = 1
	if err := g.AddNode(root); err != nil {
		return nil, fmt.Errorf("add root: %w", err)
	}

	return st.Output(
		&domain.InitializationResult{RootNodeID: root.ID, InitialDisciplinaryTags: tags},
		fmt.Sprintf("Root node %s created for query %q", root.ID, truncate(query, 60)),
		map[string]any{"nodes_created": 1, "disciplinary_tags": len(tags)},
	), nil
}

func extraTags(initial map[string]any) []string {
	switch v := initial[ContextDisciplinaryTags].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}
