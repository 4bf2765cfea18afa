package stages

import (
	"hash/fnv"
	"iter"
	"math"
	"strings"
	"time"

	"github.com/aretw0/nexusmind/pkg/graph"
)

const attributionSource = "nexusmind"

// Similarity is the Jaccard overlap of the lower-cased word sets of a and b.
func Similarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	shared := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(wa)+len(wb)-shared)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

// FalsifiabilityScore rates how testable a hypothesis is.
func FalsifiabilityScore(c *graph.FalsificationCriteria) float64 {
	if c == nil || c.Description == "" {
		return 0
	}
	score := 0.5
	// Each concrete testable condition adds confidence, up to 1.
	score += 0.1 * float64(len(c.TestableConditions))
	return math.Min(score, 1)
}

// BinaryEntropy is the Shannon entropy, in bits, of a Bernoulli(p) belief.
func BinaryEntropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
}

// DetectBiases flags hypotheses whose evidence is entirely one-sided.
func DetectBiases(g *graph.Graph, hypothesisID string) []graph.BiasFlag {
	var supportive, contradictory int
	for _, e := range g.EdgesTo(hypothesisID) {
		switch e.Type {
		case graph.EdgeTypeSupportive:
			supportive++
		case graph.EdgeTypeContradictory:
			contradictory++
		}
	}
	var flags []graph.BiasFlag
	if supportive >= 2 && contradictory == 0 {
		flags = append(flags, graph.BiasFlag{
			Type:        "confirmation_bias",
			Description: "only supportive evidence was gathered",
			Severity:    "medium",
		})
	}
	return flags
}

// stableFraction maps s to a deterministic value in [0,1).
func stableFraction(s string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum32()%1000) / 1000
}

func attribution(contributor string) []graph.Attribution {
	return []graph.Attribution{{
		Source:      attributionSource,
		Contributor: contributor,
		Timestamp:   time.Now().UTC(),
	}}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// shift moves every confidence component by delta, clamped to [0,1].
func shift(c graph.ConfidenceVector, delta float64) graph.ConfidenceVector {
	return graph.ConfidenceVector{
		EmpiricalSupport:    clamp01(c.EmpiricalSupport + delta),
		TheoreticalBasis:    clamp01(c.TheoreticalBasis + delta/2),
		MethodologicalRigor: clamp01(c.MethodologicalRigor + delta/2),
		ConsensusAlignment:  clamp01(c.ConsensusAlignment + delta/4),
	}
}

// meanConfidence averages the confidence vectors of nodes. ok is false for none.
func meanConfidence(nodes []*graph.Node) (graph.ConfidenceVector, bool) {
	if len(nodes) == 0 {
		return graph.ConfidenceVector{}, false
	}
	var sum graph.ConfidenceVector
	for _, n := range nodes {
		c := n.Metadata.Confidence
		sum.EmpiricalSupport += c.EmpiricalSupport
		sum.TheoreticalBasis += c.TheoreticalBasis
		sum.MethodologicalRigor += c.MethodologicalRigor
		sum.ConsensusAlignment += c.ConsensusAlignment
	}
	k := float64(len(nodes))
	return graph.ConfidenceVector{
		EmpiricalSupport:    sum.EmpiricalSupport / k,
		TheoreticalBasis:    sum.TheoreticalBasis / k,
		MethodologicalRigor: sum.MethodologicalRigor / k,
		ConsensusAlignment:  sum.ConsensusAlignment / k,
	}, true
}

func collect(seq iter.Seq[*graph.Node]) []*graph.Node {
	var out []*graph.Node
	for n := range seq {
		out = append(out, n)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
