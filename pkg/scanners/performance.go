package scanners

import (
	"fmt"

	"github.com/aretw0/weft/pkg/analysis"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/policy"
)

// Advisory ceilings. Crossing one is not an error; execution engines just
// tend to behave badly past these sizes.
const (
	maxAdvisedDepth  = 20
	maxAdvisedFanout = 5
	maxAdvisedSteps  = 100
)

// Performance scans for structural shapes that execute poorly.
func Performance(g *domain.FlowGraph, pol *policy.Table) []string {
	var advice []string
	stats := analysis.Measure(g, pol)

	if stats.Steps > maxAdvisedSteps {
		advice = append(advice, fmt.Sprintf("flow has %d steps; consider splitting it into sub-flows", stats.Steps))
	}
	if stats.Depth > maxAdvisedDepth {
		advice = append(advice, fmt.Sprintf("main chain is %d steps deep; long chains multiply retry latency", stats.Depth))
	}
	if stats.MaxFanout > maxAdvisedFanout {
		advice = append(advice, fmt.Sprintf("a step fans out to %d parallel branches; execution engines throttle past %d", stats.MaxFanout, maxAdvisedFanout))
	}
	return advice
}
