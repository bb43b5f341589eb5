package repair

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/weft/pkg/analysis"
	"github.com/aretw0/weft/pkg/domain"
)

// normalizeSchema fills auto-fixable schema gaps on the clone before the
// structural passes run: a missing parameters map becomes empty, a missing
// or malformed position gets a default slot on the canvas row.
func (p *Pipeline) normalizeSchema(g *domain.FlowGraph) []string {
	var fixes []string
	for i, s := range g.Nodes {
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("step %d", i)
		}
		if s.Parameters == nil {
			s.Parameters = make(map[string]any)
			fixes = append(fixes, fmt.Sprintf("added empty parameters map to %s", label))
		}
		if !s.HasPosition() {
			s.Position = []float64{float64(i) * 250, 300}
			fixes = append(fixes, fmt.Sprintf("assigned default position to %s", label))
		}
	}
	return fixes
}

// canonicalizeKinds replaces known-deprecated step kinds with their
// canonical successor. The display name is regenerated only for missing or
// placeholder names; a name the author chose survives the kind swap.
func (p *Pipeline) canonicalizeKinds(g *domain.FlowGraph) []string {
	var fixes []string
	for _, s := range g.Nodes {
		successor, ok := p.policy.Canonical(s.Kind)
		if !ok {
			continue
		}
		old := s.Kind
		s.Kind = successor
		if s.Name == "" || placeholderName.MatchString(s.Name) {
			newName := uniqueName(g, p.policy.DisplayName(successor), s.Name)
			if newName != s.Name {
				oldName := s.Name
				g.RenameStep(oldName, newName)
				fixes = append(fixes, fmt.Sprintf("replaced deprecated kind %s with %s and renamed step %q to %q", old, successor, oldName, newName))
				continue
			}
		}
		fixes = append(fixes, fmt.Sprintf("replaced deprecated kind %s with %s on step %q", old, successor, s.Name))
	}
	return fixes
}

// stripMisusedToolEdges removes tool edges emitted by regular steps. Edges
// leaving an agent are left for the reversal pass, which knows how to turn
// them around instead of dropping them.
func (p *Pipeline) stripMisusedToolEdges(g *domain.FlowGraph) []string {
	var fixes []string
	for _, e := range g.Edges() {
		if e.Port != domain.PortTool {
			continue
		}
		src := g.StepByName(e.Source)
		if src == nil {
			continue
		}
		if p.policy.MayEmit(src.Kind, domain.PortTool) || p.policy.IsAgent(src.Kind) {
			continue
		}
		if g.RemoveEdge(e) {
			fixes = append(fixes, fmt.Sprintf("removed tool connection %q -> %q: %q cannot emit tool connections", e.Source, e.Target, e.Source))
		}
	}
	return fixes
}

// promoteServiceTools retypes an isolated service step to its tool
// equivalent when the graph has at least one agent and the step is not part
// of the main execution chain (its only edges, if any, use agent
// infrastructure port kinds).
func (p *Pipeline) promoteServiceTools(g *domain.FlowGraph) []string {
	if !hasAgent(g, p) {
		return nil
	}
	var fixes []string
	for _, s := range g.Nodes {
		if s.Name == "" || p.policy.ToolCapable(s.Kind) {
			continue
		}
		equivalent, ok := p.policy.ToolEquivalent(s.Kind)
		if !ok {
			continue
		}
		onMainChain := false
		for _, e := range append(g.Outbound(s.Name), g.Inbound(s.Name)...) {
			if !e.Port.AgentInfra() {
				onMainChain = true
				break
			}
		}
		if onMainChain {
			continue
		}
		old := s.Kind
		s.Kind = equivalent
		fixes = append(fixes, fmt.Sprintf("retyped isolated service step %q from %s to its tool equivalent %s", s.Name, old, equivalent))
	}
	return fixes
}

// modelNameDenyList holds substrings of well-known hosted-model
// identifiers. Model selection is a runtime concern, not graph data, so
// parameters carrying these literals are scrubbed by the pipeline.
var modelNameDenyList = []string{
	"gpt-",
	"chatgpt",
	"o1-",
	"o3-",
	"claude",
	"gemini",
	"llama",
	"mistral",
	"mixtral",
	"deepseek",
	"qwen",
	"command-r",
	"text-embedding",
	"davinci",
}

// stripModelLiterals deletes parameters of model steps whose string value
// embeds a known model identifier, then makes sure an empty options
// container remains for runtime configuration to fill in.
func (p *Pipeline) stripModelLiterals(g *domain.FlowGraph) []string {
	var fixes []string
	for _, s := range g.Nodes {
		if !p.policy.IsModel(s.Kind) || s.Parameters == nil {
			continue
		}
		keys := make([]string, 0, len(s.Parameters))
		for k := range s.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		removed := false
		for _, key := range keys {
			str, ok := s.Parameters[key].(string)
			if !ok || !matchesModelName(str) {
				continue
			}
			delete(s.Parameters, key)
			removed = true
			fixes = append(fixes, fmt.Sprintf("removed embedded model identifier %q from step %q", key, s.Name))
		}
		if removed {
			if _, ok := s.Parameters["options"]; !ok {
				s.Parameters["options"] = make(map[string]any)
			}
		}
	}
	return fixes
}

func matchesModelName(value string) bool {
	lower := strings.ToLower(value)
	for _, frag := range modelNameDenyList {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// reverseBackwardsToolEdges deletes tool edges wired agent -> tool and
// replaces them with the canonical tool -> agent edge, deduplicated against
// any equivalent edge already present.
func (p *Pipeline) reverseBackwardsToolEdges(g *domain.FlowGraph) []string {
	var fixes []string
	for _, e := range g.Edges() {
		if e.Port != domain.PortTool {
			continue
		}
		src := g.StepByName(e.Source)
		dst := g.StepByName(e.Target)
		if src == nil || dst == nil {
			continue
		}
		if !p.policy.IsAgent(src.Kind) || !p.policy.ToolCapable(dst.Kind) {
			continue
		}
		if !g.RemoveEdge(e) {
			continue
		}
		canonical := domain.Edge{
			Source: dst.Name,
			Port:   domain.PortTool,
			Target: src.Name,
		}
		if !g.HasEdge(canonical) {
			g.AddEdge(canonical)
		}
		fixes = append(fixes, fmt.Sprintf("reversed backwards tool connection: %q now connects into agent %q", dst.Name, src.Name))
	}
	return fixes
}

// normalizeToolIndices forces every tool edge's target index to 0, the
// convention for single-slot tool ports.
func (p *Pipeline) normalizeToolIndices(g *domain.FlowGraph) []string {
	var fixes []string
	for _, s := range g.Nodes {
		ports, ok := g.Connections[s.Name]
		if !ok {
			continue
		}
		for _, targets := range ports[domain.PortTool] {
			for i := range targets {
				if targets[i].Index != 0 {
					targets[i].Index = 0
					fixes = append(fixes, fmt.Sprintf("normalized tool connection %q -> %q to input index 0", s.Name, targets[i].Node))
				}
			}
		}
	}
	return fixes
}

// pruneFanout keeps only the first-declared main edge per output slot on
// non-router steps. Routers legitimately branch and are exempt.
func (p *Pipeline) pruneFanout(g *domain.FlowGraph) []string {
	var fixes []string
	for _, s := range g.Nodes {
		if p.policy.IsRouter(s.Kind) {
			continue
		}
		ports, ok := g.Connections[s.Name]
		if !ok {
			continue
		}
		slots := ports[domain.PortMain]
		for slot, targets := range slots {
			if len(targets) <= 1 {
				continue
			}
			for _, dropped := range targets[1:] {
				fixes = append(fixes, fmt.Sprintf("removed extra main connection %q -> %q from output %d (only routers may branch)", s.Name, dropped.Node, slot))
			}
			slots[slot] = targets[:1]
		}
	}
	return fixes
}

// reconnectOrphans wires fully disconnected steps back into the graph by
// kind: agents stay terminal, tool-capable steps get a tool edge to the
// first agent, everything else is spliced into the main chain from the
// first agent or, failing that, the first non-trigger step.
func (p *Pipeline) reconnectOrphans(g *domain.FlowGraph) []string {
	var fixes []string
	for _, name := range analysis.Orphans(g) {
		s := g.StepByName(name)
		if s == nil {
			continue
		}
		switch {
		case p.policy.IsAgent(s.Kind) || p.policy.IsDecorative(s.Kind):
			// Terminal agents are a valid pattern; decorations stay loose.
		case p.policy.ToolCapable(s.Kind):
			agent := firstAgent(g, p)
			if agent == nil {
				continue
			}
			g.AddEdge(domain.Edge{Source: s.Name, Port: domain.PortTool, Target: agent.Name})
			fixes = append(fixes, fmt.Sprintf("connected orphan tool %q to agent %q", s.Name, agent.Name))
		default:
			source := firstAgent(g, p)
			if source == nil {
				source = firstChainStep(g, p, s)
			}
			if source == nil || source == s {
				continue
			}
			// Splice at the end of the chain, not at the anchor itself:
			// appending a second target to an occupied slot would create
			// non-router fan-out.
			source = chainTail(g, source, s)
			if source == nil {
				continue
			}
			g.AddEdge(domain.Edge{Source: source.Name, Port: domain.PortMain, Target: s.Name})
			fixes = append(fixes, fmt.Sprintf("spliced orphan step %q into the main chain after %q", s.Name, source.Name))
		}
	}
	return fixes
}

func hasAgent(g *domain.FlowGraph, p *Pipeline) bool {
	return firstAgent(g, p) != nil
}

func firstAgent(g *domain.FlowGraph, p *Pipeline) *domain.Step {
	for _, s := range g.Nodes {
		if p.policy.IsAgent(s.Kind) {
			return s
		}
	}
	return nil
}

// chainTail follows main edges from start until a step with a free main
// output. Returns nil when the walk hits a cycle, in which case there is no
// safe place to splice.
func chainTail(g *domain.FlowGraph, start, orphan *domain.Step) *domain.Step {
	cur := start
	visited := map[string]bool{cur.Name: true}
	for {
		var next *domain.Step
		followed := false
		for _, e := range g.Outbound(cur.Name) {
			if e.Port != domain.PortMain {
				continue
			}
			followed = true
			next = g.StepByName(e.Target)
			break
		}
		if !followed {
			return cur
		}
		if next == nil || visited[next.Name] || next == orphan {
			return nil
		}
		visited[next.Name] = true
		cur = next
	}
}

// firstChainStep picks the splice source: the first non-trigger,
// non-decorative step, preferring one that already has connections so two
// orphans are not wired to each other.
func firstChainStep(g *domain.FlowGraph, p *Pipeline, skip *domain.Step) *domain.Step {
	var fallback *domain.Step
	for _, s := range g.Nodes {
		if s == skip || p.policy.IsTrigger(s.Kind) || p.policy.IsDecorative(s.Kind) {
			continue
		}
		if len(g.Outbound(s.Name)) > 0 || len(g.Inbound(s.Name)) > 0 {
			return s
		}
		if fallback == nil {
			fallback = s
		}
	}
	return fallback
}
