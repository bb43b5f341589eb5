// Package analysis provides connectivity measurements over a flow graph:
// chain depth, fan-out and orphan detection. All functions are read-only.
package analysis

import (
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/policy"
)

// Stats bundles the connectivity measurements for one graph.
type Stats struct {
	Steps     int      `json:"steps"`
	Depth     int      `json:"depth"`
	MaxFanout int      `json:"maxFanout"`
	Orphans   []string `json:"orphans,omitempty"`
}

// Measure computes all connectivity stats in one pass set.
func Measure(g *domain.FlowGraph, pol *policy.Table) Stats {
	return Stats{
		Steps:     len(g.Nodes),
		Depth:     Depth(g, pol),
		MaxFanout: MaxFanout(g),
		Orphans:   Orphans(g),
	}
}

// Depth returns the longest path length (in edges) from the trigger step
// following only main edges.
//
// It uses monotonic distance relaxation over a worklist: a step's best-known
// depth only ever increases, and an increase is capped at the step count, so
// the computation terminates even when the graph contains a cycle. It does
// not assume acyclicity.
func Depth(g *domain.FlowGraph, pol *policy.Table) int {
	var trigger *domain.Step
	for _, s := range g.Nodes {
		if pol.IsTrigger(s.Kind) {
			trigger = s
			break
		}
	}
	if trigger == nil {
		return 0
	}

	dist := map[string]int{trigger.Name: 0}
	queue := []string{trigger.Name}
	limit := len(g.Nodes)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		next := dist[cur] + 1
		if next > limit {
			continue
		}
		for _, e := range g.Outbound(cur) {
			if e.Port != domain.PortMain {
				continue
			}
			if have, ok := dist[e.Target]; !ok || next > have {
				dist[e.Target] = next
				queue = append(queue, e.Target)
			}
		}
	}

	max := 0
	for _, d := range dist {
		if d > max {
			max = d
		}
	}
	return max
}

// MaxFanout returns the largest number of parallel main edges emitted from
// any single (step, output slot) pair.
func MaxFanout(g *domain.FlowGraph) int {
	max := 0
	for _, ports := range g.Connections {
		for _, targets := range ports[domain.PortMain] {
			if len(targets) > max {
				max = len(targets)
			}
		}
	}
	return max
}

// Orphans returns the names of steps with no inbound and no outbound edges,
// in step-declaration order.
func Orphans(g *domain.FlowGraph) []string {
	inbound := make(map[string]int)
	outbound := make(map[string]int)
	for _, e := range g.Edges() {
		outbound[e.Source]++
		inbound[e.Target]++
	}
	var orphans []string
	for _, s := range g.Nodes {
		if inbound[s.Name] == 0 && outbound[s.Name] == 0 {
			orphans = append(orphans, s.Name)
		}
	}
	return orphans
}
