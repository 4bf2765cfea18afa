package graph

import (
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/stages"
)

// SessionOverlay highlights the high-confidence subgraph of a finished
// session and focuses its root node.
func SessionOverlay(sess *domain.Session) *GraphOverlay {
	overlay := &GraphOverlay{}
	if res, ok := domain.ResultOf[*domain.InitializationResult](sess.Context); ok {
		overlay.FocusNode = res.RootNodeID
	}
	if res, ok := domain.ResultOf[*domain.SubgraphExtractionResult](sess.Context); ok {
		for _, sg := range res.Subgraphs {
			if sg.Name == stages.SubgraphHighConfidence {
				overlay.HighlightNodes = sg.NodeIDs
			}
		}
	}
	return overlay
}
