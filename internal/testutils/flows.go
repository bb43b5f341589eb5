// Package testutils provides flow-graph fixtures shared by package tests.
package testutils

import (
	"github.com/aretw0/weft/pkg/domain"
)

// NewStep builds a well-formed step with a position and empty parameters.
func NewStep(name, kind string, x, y float64) *domain.Step {
	return &domain.Step{
		ID:         name + "-id",
		Name:       name,
		Kind:       kind,
		Position:   []float64{x, y},
		Parameters: map[string]any{},
	}
}

// MainEdge is shorthand for a main-chain edge between two steps.
func MainEdge(source, target string) domain.Edge {
	return domain.Edge{Source: source, Port: domain.PortMain, Target: target}
}

// InfraEdge is shorthand for an agent-infrastructure edge (tool, model,
// memory) from the infrastructure step into the agent.
func InfraEdge(source string, port domain.PortKind, agent string) domain.Edge {
	return domain.Edge{Source: source, Port: port, Target: agent}
}

// LinearFlow is the smallest healthy flow: a manual trigger feeding one
// HTTP request step.
func LinearFlow() *domain.FlowGraph {
	g := &domain.FlowGraph{
		Name: "linear",
		Nodes: []*domain.Step{
			NewStep("Start", "base.manualTrigger", 0, 300),
			NewStep("Fetch", "base.httpRequest", 250, 300),
		},
	}
	g.AddEdge(MainEdge("Start", "Fetch"))
	return g
}

// AgentFlow is a healthy agent flow: trigger feeding an agent that has a
// model, a memory and one tool attached.
func AgentFlow() *domain.FlowGraph {
	g := &domain.FlowGraph{
		Name: "agent",
		Nodes: []*domain.Step{
			NewStep("Start", "base.manualTrigger", 0, 300),
			NewStep("Assistant", "agents.agent", 250, 300),
			NewStep("Model", "models.openAiChat", 50, 480),
			NewStep("Memory", "memory.bufferWindow", 450, 480),
			NewStep("Calculator", "tools.calculator", 250, 620),
		},
	}
	g.AddEdge(MainEdge("Start", "Assistant"))
	g.AddEdge(InfraEdge("Model", domain.PortLanguageModel, "Assistant"))
	g.AddEdge(InfraEdge("Memory", domain.PortMemory, "Assistant"))
	g.AddEdge(InfraEdge("Calculator", domain.PortTool, "Assistant"))
	return g
}

// ToDocument converts a graph to the generic JSON-ish document shape the
// engine accepts, exercising the decode path end to end.
func ToDocument(g *domain.FlowGraph) map[string]any {
	nodes := make([]any, 0, len(g.Nodes))
	for _, s := range g.Nodes {
		pos := make([]any, len(s.Position))
		for i, p := range s.Position {
			pos[i] = p
		}
		node := map[string]any{
			"id":         s.ID,
			"name":       s.Name,
			"type":       s.Kind,
			"position":   pos,
			"parameters": s.Parameters,
		}
		if s.Credentials != nil {
			node["credentials"] = s.Credentials
		}
		if s.Disabled {
			node["disabled"] = true
		}
		nodes = append(nodes, node)
	}

	connections := map[string]any{}
	for src, ports := range g.Connections {
		portMap := map[string]any{}
		for port, slots := range ports {
			slotList := make([]any, len(slots))
			for i, targets := range slots {
				targetList := make([]any, len(targets))
				for j, t := range targets {
					targetList[j] = map[string]any{
						"node":  t.Node,
						"type":  string(t.Type),
						"index": float64(t.Index),
					}
				}
				slotList[i] = targetList
			}
			portMap[string(port)] = slotList
		}
		connections[src] = portMap
	}

	return map[string]any{
		"name":        g.Name,
		"nodes":       nodes,
		"connections": connections,
	}
}
