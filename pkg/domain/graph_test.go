package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(name, kind string) *Step {
	return &Step{
		Name:       name,
		Kind:       kind,
		Position:   []float64{0, 300},
		Parameters: map[string]any{},
	}
}

func linearGraph() *FlowGraph {
	g := &FlowGraph{
		Nodes: []*Step{
			step("Start", "base.manualTrigger"),
			step("Fetch", "base.httpRequest"),
			step("Save", "base.postgres"),
		},
	}
	g.AddEdge(Edge{Source: "Start", Port: PortMain, Target: "Fetch"})
	g.AddEdge(Edge{Source: "Fetch", Port: PortMain, Target: "Save"})
	return g
}

func TestEdgesFlattensDeterministically(t *testing.T) {
	g := linearGraph()
	g.AddEdge(Edge{Source: "Model", Port: PortLanguageModel, Target: "Agent"})

	edges := g.Edges()
	require.Len(t, edges, 3)

	// Declared steps first in declaration order, loose sources last.
	assert.Equal(t, "Start", edges[0].Source)
	assert.Equal(t, "Fetch", edges[1].Source)
	assert.Equal(t, "Model", edges[2].Source)
	assert.Equal(t, PortLanguageModel, edges[2].Port)

	// Stable across calls.
	assert.Equal(t, edges, g.Edges())
}

func TestAddRemoveEdge(t *testing.T) {
	g := linearGraph()
	e := Edge{Source: "Save", Port: PortMain, Target: "Start"}

	assert.False(t, g.HasEdge(e))
	g.AddEdge(e)
	assert.True(t, g.HasEdge(e))

	require.True(t, g.RemoveEdge(e))
	assert.False(t, g.HasEdge(e))
	assert.False(t, g.RemoveEdge(e), "second removal must report absence")
}

func TestAddEdgeGrowsSlots(t *testing.T) {
	g := &FlowGraph{Nodes: []*Step{step("Router", "base.switch"), step("A", "base.code")}}
	g.AddEdge(Edge{Source: "Router", Port: PortMain, SourceIndex: 2, Target: "A"})

	slots := g.Connections["Router"][PortMain]
	require.Len(t, slots, 3)
	assert.Empty(t, slots[0])
	assert.Empty(t, slots[1])
	require.Len(t, slots[2], 1)
	assert.Equal(t, "A", slots[2][0].Node)
}

func TestInboundOutbound(t *testing.T) {
	g := linearGraph()

	out := g.Outbound("Start")
	require.Len(t, out, 1)
	assert.Equal(t, "Fetch", out[0].Target)

	in := g.Inbound("Save")
	require.Len(t, in, 1)
	assert.Equal(t, "Fetch", in[0].Source)

	assert.Empty(t, g.InboundByPort("Save", PortTool))
}

func TestRenameStepRewritesEverything(t *testing.T) {
	g := linearGraph()
	before := len(g.Edges())

	g.RenameStep("Fetch", "Download")

	require.NotNil(t, g.StepByName("Download"))
	assert.Nil(t, g.StepByName("Fetch"))
	assert.Len(t, g.Edges(), before, "rename must not change the edge count")

	for _, e := range g.Edges() {
		assert.NotEqual(t, "Fetch", e.Source)
		assert.NotEqual(t, "Fetch", e.Target)
	}
	assert.True(t, g.HasEdge(Edge{Source: "Start", Port: PortMain, Target: "Download"}))
	assert.True(t, g.HasEdge(Edge{Source: "Download", Port: PortMain, Target: "Save"}))
}

func TestRenameStepNoop(t *testing.T) {
	g := linearGraph()
	g.RenameStep("Fetch", "Fetch")
	assert.NotNil(t, g.StepByName("Fetch"))
}

func TestCloneIsIndependent(t *testing.T) {
	g := linearGraph()
	g.Nodes[1].Parameters["options"] = map[string]any{"retries": 3.0}

	cp := g.Clone()
	require.Len(t, cp.Nodes, 3)

	// Mutate the clone in every dimension.
	cp.Nodes[0].Name = "Mutated"
	cp.Nodes[1].Parameters["options"].(map[string]any)["retries"] = 99.0
	cp.Nodes[1].Position[0] = -1
	cp.AddEdge(Edge{Source: "Save", Port: PortMain, Target: "Mutated"})
	cp.RenameStep("Save", "Other")

	assert.Equal(t, "Start", g.Nodes[0].Name)
	assert.Equal(t, 3.0, g.Nodes[1].Parameters["options"].(map[string]any)["retries"])
	assert.Equal(t, 0.0, g.Nodes[1].Position[0])
	assert.Len(t, g.Edges(), 2)
	assert.NotNil(t, g.StepByName("Save"))
}

func TestCloneNil(t *testing.T) {
	var g *FlowGraph
	assert.Nil(t, g.Clone())
}

func TestPortKindHelpers(t *testing.T) {
	assert.True(t, PortMain.Known())
	assert.False(t, PortKind("bogus").Known())

	assert.False(t, PortMain.AgentInfra())
	assert.True(t, PortTool.AgentInfra())
	assert.True(t, PortLanguageModel.AgentInfra())
	assert.True(t, PortMemory.AgentInfra())
}
