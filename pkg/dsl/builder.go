// Package dsl provides an incremental flow-graph builder used by callers
// (for example a natural-language-to-graph front end) to assemble a
// candidate graph prior to validation.
package dsl

import (
	"fmt"

	"github.com/aretw0/weft/pkg/catalog"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/policy"
	"github.com/google/uuid"
)

// Builder accumulates steps and connections. It does not validate: the
// result is a candidate graph for the engine to check and repair.
type Builder struct {
	graph  *domain.FlowGraph
	policy *policy.Table
	nextX  float64
}

// New creates a builder resolving display names through the given catalog.
func New(cat *catalog.Catalog) *Builder {
	return &Builder{
		graph: &domain.FlowGraph{
			Connections: make(domain.ConnectionMap),
		},
		policy: policy.New(cat),
	}
}

// AddStep appends a step of the given kind and returns its generated name,
// the addressing key for Connect. Position is optional; steps without one
// are laid out left to right.
func (b *Builder) AddStep(kind string, parameters map[string]any, position ...[2]float64) string {
	if parameters == nil {
		parameters = make(map[string]any)
	}
	pos := []float64{b.nextX, 300}
	if len(position) > 0 {
		pos = []float64{position[0][0], position[0][1]}
	} else {
		b.nextX += 250
	}

	name := b.uniqueName(b.policy.DisplayName(kind))
	b.graph.Nodes = append(b.graph.Nodes, &domain.Step{
		ID:         uuid.NewString(),
		Name:       name,
		Kind:       kind,
		Position:   pos,
		Parameters: parameters,
	})
	return name
}

// Connect adds an edge between two named steps. Indices default to 0.
func (b *Builder) Connect(source, target string, port domain.PortKind, indices ...int) {
	sourceIndex, targetIndex := 0, 0
	if len(indices) > 0 {
		sourceIndex = indices[0]
	}
	if len(indices) > 1 {
		targetIndex = indices[1]
	}
	b.graph.AddEdge(domain.Edge{
		Source:      source,
		Port:        port,
		SourceIndex: sourceIndex,
		Target:      target,
		TargetIndex: targetIndex,
	})
}

// Build returns the assembled candidate graph. The builder keeps no claim
// on it; callers own the result.
func (b *Builder) Build() *domain.FlowGraph {
	g := b.graph
	b.graph = &domain.FlowGraph{Connections: make(domain.ConnectionMap)}
	b.nextX = 0
	return g
}

func (b *Builder) uniqueName(base string) string {
	if b.graph.StepByName(base) == nil {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", base, i)
		if b.graph.StepByName(candidate) == nil {
			return candidate
		}
	}
}
