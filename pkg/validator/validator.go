// Package validator runs schema and invariant checks over a flow graph and
// reports errors and warnings. It never mutates its input.
package validator

import (
	"fmt"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/policy"
)

// Report is the outcome of one validation run.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Valid reports whether the run found no errors.
func (r Report) Valid() bool { return len(r.Errors) == 0 }

// Validator checks flow graphs against the structural invariants.
type Validator struct {
	policy *policy.Table
}

// New creates a validator over the given port-kind policy.
func New(pol *policy.Table) *Validator {
	return &Validator{policy: pol}
}

// ValidateDocument validates a loose JSON document. Malformed input (not an
// object, or a step/parameter structure that is not a plain key-value map)
// is terminal: the report carries a single fatal error, all further checks
// are skipped and the returned graph is nil, signalling that no repair
// should be attempted.
func (v *Validator) ValidateDocument(doc any) (Report, *domain.FlowGraph) {
	g, err := domain.Decode(doc)
	if err != nil {
		return Report{Errors: []string{fmt.Sprintf("invalid input: %v", err)}}, nil
	}
	return v.Validate(g), g
}

// Validate runs all schema and invariant checks over a typed graph.
func (v *Validator) Validate(g *domain.FlowGraph) Report {
	var rep Report

	v.checkStepSchemas(g, &rep)
	v.checkDuplicateNames(g, &rep)
	v.checkTriggers(g, &rep)
	v.checkEdges(g, &rep)
	v.checkHangingSteps(g, &rep)
	v.checkFanout(g, &rep)
	v.checkAgents(g, &rep)

	return rep
}

func (v *Validator) checkStepSchemas(g *domain.FlowGraph, rep *Report) {
	for i, s := range g.Nodes {
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("step %d", i)
			rep.Errors = append(rep.Errors, fmt.Sprintf("step %d: missing name", i))
		}
		if s.Kind == "" {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: missing kind", label))
		}
		if !s.HasPosition() {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: position must be a 2-element [x, y] pair", label))
		}
		if s.Parameters == nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: missing parameters map", label))
		}
	}
}

func (v *Validator) checkDuplicateNames(g *domain.FlowGraph, rep *Report) {
	seen := make(map[string]bool, len(g.Nodes))
	for _, s := range g.Nodes {
		if s.Name == "" {
			continue
		}
		if seen[s.Name] {
			rep.Errors = append(rep.Errors, fmt.Sprintf("duplicate step name %q", s.Name))
		}
		seen[s.Name] = true
	}
}

// Exactly one trigger should function as the entry point. This is detected,
// not enforced: deviations surface as warnings.
func (v *Validator) checkTriggers(g *domain.FlowGraph, rep *Report) {
	count := 0
	for _, s := range g.Nodes {
		if v.policy.IsTrigger(s.Kind) {
			count++
		}
	}
	switch {
	case count == 0 && len(g.Nodes) > 0:
		rep.Warnings = append(rep.Warnings, "flow has no trigger step")
	case count > 1:
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("flow has %d trigger steps; only one functions as the entry point", count))
	}
}

func (v *Validator) checkEdges(g *domain.FlowGraph, rep *Report) {
	seen := make(map[domain.Edge]bool)
	for _, e := range g.Edges() {
		if !g.HasStep(e.Source) {
			rep.Errors = append(rep.Errors, fmt.Sprintf("connection %q -> %q: source step %q does not exist", e.Source, e.Target, e.Source))
			continue
		}
		if !g.HasStep(e.Target) {
			rep.Errors = append(rep.Errors, fmt.Sprintf("connection %q -> %q: target step %q does not exist", e.Source, e.Target, e.Target))
			continue
		}
		if seen[e] {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("duplicate connection %q -> %q (%s)", e.Source, e.Target, e.Port))
		}
		seen[e] = true

		if e.Port == domain.PortTool {
			v.checkToolEdge(g, e, rep)
		}
	}
}

// Tool edges always run tool-capable -> agent with target index 0. Both
// ends resolve through the port-kind capability table.
func (v *Validator) checkToolEdge(g *domain.FlowGraph, e domain.Edge, rep *Report) {
	src := g.StepByName(e.Source)
	dst := g.StepByName(e.Target)
	srcIsAgent := src != nil && v.policy.IsAgent(src.Kind)

	if src != nil && !srcIsAgent && !v.policy.MayEmit(src.Kind, domain.PortTool) {
		rep.Errors = append(rep.Errors, fmt.Sprintf("tool connection %q -> %q: %q is not a tool-capable step", e.Source, e.Target, e.Source))
	}
	if srcIsAgent {
		rep.Errors = append(rep.Errors, fmt.Sprintf("tool connection %q -> %q runs backwards: tools connect into agents, not out of them", e.Source, e.Target))
	}
	// An agent source already yields the backwards error; reporting the
	// target too would describe the same edge twice.
	if dst != nil && !srcIsAgent && !accepts(v.policy.AllowedInbound(dst.Kind), domain.PortTool) {
		rep.Errors = append(rep.Errors, fmt.Sprintf("tool connection %q -> %q: target %q is not an agent", e.Source, e.Target, e.Target))
	}
	if e.TargetIndex != 0 {
		rep.Errors = append(rep.Errors, fmt.Sprintf("tool connection %q -> %q: tool ports are single-slot, input index must be 0", e.Source, e.Target))
	}
}

func accepts(ports []domain.PortKind, port domain.PortKind) bool {
	for _, p := range ports {
		if p == port {
			return true
		}
	}
	return false
}

// Hanging steps are fatal; the message depends on what the step is for.
// Decorative kinds and agents (which may be terminal) are exempt.
func (v *Validator) checkHangingSteps(g *domain.FlowGraph, rep *Report) {
	inbound := make(map[string]int)
	outbound := make(map[string]int)
	for _, e := range g.Edges() {
		outbound[e.Source]++
		inbound[e.Target]++
	}
	for _, s := range g.Nodes {
		if s.Name == "" || inbound[s.Name] > 0 || outbound[s.Name] > 0 {
			continue
		}
		switch {
		case v.policy.IsDecorative(s.Kind) || v.policy.IsAgent(s.Kind):
			// Exempt.
		case v.policy.IsTrigger(s.Kind):
			rep.Errors = append(rep.Errors, fmt.Sprintf("trigger step %q has no connections: the flow cannot start", s.Name))
		case v.policy.ToolCapable(s.Kind) || v.policy.IsModel(s.Kind) || v.policy.IsMemory(s.Kind):
			rep.Errors = append(rep.Errors, fmt.Sprintf("step %q (%s) is not wired to an agent", s.Name, s.Kind))
		default:
			rep.Errors = append(rep.Errors, fmt.Sprintf("step %q is not connected to the workflow", s.Name))
		}
	}
}

// Only router kinds may emit parallel main connections from one output slot.
func (v *Validator) checkFanout(g *domain.FlowGraph, rep *Report) {
	for _, s := range g.Nodes {
		if v.policy.IsRouter(s.Kind) {
			continue
		}
		ports, ok := g.Connections[s.Name]
		if !ok {
			continue
		}
		for slot, targets := range ports[domain.PortMain] {
			if len(targets) > 1 {
				rep.Errors = append(rep.Errors, fmt.Sprintf("step %q emits %d parallel main connections from output %d; only routers may branch", s.Name, len(targets), slot))
			}
		}
	}
}

// Agents require exactly one languageModel and exactly one memory input.
// A missing tool input is only a warning: agents may have zero tools.
func (v *Validator) checkAgents(g *domain.FlowGraph, rep *Report) {
	for _, s := range g.Nodes {
		if !v.policy.IsAgent(s.Kind) || s.Name == "" {
			continue
		}
		switch n := len(g.InboundByPort(s.Name, domain.PortLanguageModel)); {
		case n == 0:
			rep.Errors = append(rep.Errors, fmt.Sprintf("agent %q is missing a languageModel connection", s.Name))
		case n > 1:
			rep.Errors = append(rep.Errors, fmt.Sprintf("agent %q has %d languageModel connections; exactly one is required", s.Name, n))
		}
		switch n := len(g.InboundByPort(s.Name, domain.PortMemory)); {
		case n == 0:
			rep.Errors = append(rep.Errors, fmt.Sprintf("agent %q is missing a memory connection", s.Name))
		case n > 1:
			rep.Errors = append(rep.Errors, fmt.Sprintf("agent %q has %d memory connections; exactly one is required", s.Name, n))
		}
		if len(g.InboundByPort(s.Name, domain.PortTool)) == 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("agent %q has no tools connected", s.Name))
		}
	}
}
