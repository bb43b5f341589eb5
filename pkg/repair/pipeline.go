// Package repair implements the deterministic auto-repair pipeline: an
// ordered sequence of idempotent graph-rewrite passes. Passes run in a
// fixed order because later passes assume invariants restored by earlier
// ones; each pass self-skips when its precondition does not hold, and
// running the pipeline twice yields no additional fixes.
package repair

import (
	"log/slog"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/policy"
)

// Result is the outcome of one pipeline run.
type Result struct {
	// Graph is the repaired private clone; the input graph is untouched.
	Graph   *domain.FlowGraph
	Changed bool
	Fixes   []string
}

// Pipeline applies the repair passes. Passes never fail: each logs its
// changes and continues, so a run always completes with a best-effort graph.
type Pipeline struct {
	policy *policy.Table
	log    *slog.Logger
}

// New creates a pipeline over the given port-kind policy.
func New(pol *policy.Table, log *slog.Logger) *Pipeline {
	if log == nil {
		log = logging.NewNop()
	}
	return &Pipeline{policy: pol, log: log}
}

type pass struct {
	name  string
	apply func(*domain.FlowGraph) []string
}

func (p *Pipeline) passes() []pass {
	return []pass{
		{"normalize-schema", p.normalizeSchema},
		{"canonicalize-kinds", p.canonicalizeKinds},
		{"strip-misused-tool-edges", p.stripMisusedToolEdges},
		{"promote-service-tools", p.promoteServiceTools},
		{"strip-model-literals", p.stripModelLiterals},
		{"reverse-backwards-tool-edges", p.reverseBackwardsToolEdges},
		{"repair-names", p.repairNames},
		{"normalize-tool-indices", p.normalizeToolIndices},
		{"prune-fanout", p.pruneFanout},
		{"reconnect-orphans", p.reconnectOrphans},
		// Layout runs last so it sees every edge the structural passes
		// added; placing auxiliaries earlier would leave edges wired by
		// orphan reconnection unplaced until the next run.
		{"layout-auxiliaries", p.layoutAuxiliaries},
	}
}

// Run clones the graph, applies every pass in order and returns the clone
// together with the accumulated fix log. The input graph is never mutated.
func (p *Pipeline) Run(g *domain.FlowGraph) Result {
	clone := g.Clone()
	if clone.Connections == nil {
		clone.Connections = make(domain.ConnectionMap)
	}

	var fixes []string
	for _, pass := range p.passes() {
		applied := pass.apply(clone)
		if len(applied) > 0 {
			p.log.Debug("repair pass applied", "pass", pass.name, "fixes", len(applied))
		}
		fixes = append(fixes, applied...)
	}

	return Result{Graph: clone, Changed: len(fixes) > 0, Fixes: fixes}
}
