package repair

import (
	"fmt"
	"testing"

	"github.com/aretw0/weft/internal/testutils"
	"github.com/aretw0/weft/pkg/catalog"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return New(policy.New(cat), nil)
}

func TestRunLeavesCleanGraphAlone(t *testing.T) {
	p := newPipeline(t)

	for name, g := range map[string]*domain.FlowGraph{
		"linear": testutils.LinearFlow(),
		"agent":  testutils.AgentFlow(),
	} {
		result := p.Run(g)
		assert.False(t, result.Changed, "%s: unexpected fixes %v", name, result.Fixes)
		assert.Empty(t, result.Fixes, name)
	}
}

func TestRunDoesNotMutateInput(t *testing.T) {
	p := newPipeline(t)
	g := testutils.LinearFlow()
	g.Nodes[1].Position = nil
	g.Nodes = append(g.Nodes, testutils.NewStep("Node1", "base.code", 500, 300))

	result := p.Run(g)
	require.True(t, result.Changed)

	// The input keeps its defects; only the clone is repaired.
	assert.Nil(t, g.Nodes[1].Position)
	assert.NotNil(t, g.StepByName("Node1"))
	assert.Nil(t, result.Graph.StepByName("Node1"))
	assert.True(t, result.Graph.Nodes[1].HasPosition())
}

func TestRunIsIdempotent(t *testing.T) {
	p := newPipeline(t)

	// A graph tripping most passes at once.
	g := testutils.AgentFlow()
	g.Nodes[2].Parameters = nil                     // schema gap on the model
	g.Nodes[2].Position = nil                       // layout gap
	g.Nodes = append(g.Nodes,
		testutils.NewStep("Node1", "base.function", 700, 300), // placeholder + deprecated
		testutils.NewStep("Loose", "base.code", 900, 300),
		testutils.NewStep("Lookup", "base.httpRequest", 0, 700),
	)
	g.RemoveEdge(testutils.InfraEdge("Calculator", domain.PortTool, "Assistant"))
	g.AddEdge(testutils.InfraEdge("Assistant", domain.PortTool, "Calculator")) // backwards

	first := p.Run(g)
	require.True(t, first.Changed)
	require.NotEmpty(t, first.Fixes)

	second := p.Run(first.Graph)
	assert.False(t, second.Changed, "second run applied fixes: %v", second.Fixes)
	assert.Empty(t, second.Fixes)
}

func TestNormalizeSchema(t *testing.T) {
	p := newPipeline(t)
	g := &domain.FlowGraph{
		Nodes: []*domain.Step{
			{Name: "A", Kind: "base.manualTrigger"},
			{Name: "B", Kind: "base.code", Position: []float64{1, 2, 3}, Parameters: map[string]any{}},
		},
	}
	g.AddEdge(testutils.MainEdge("A", "B"))

	result := p.Run(g)
	out := result.Graph
	assert.NotNil(t, out.Nodes[0].Parameters)
	assert.Equal(t, []float64{0, 300}, out.Nodes[0].Position)
	assert.Equal(t, []float64{250, 300}, out.Nodes[1].Position, "3-element positions are replaced by the row default")
}

func TestCanonicalizeKinds(t *testing.T) {
	p := newPipeline(t)
	g := testutils.LinearFlow()
	g.Nodes = append(g.Nodes, testutils.NewStep("Legacy", "base.function", 500, 300))
	g.AddEdge(testutils.MainEdge("Fetch", "Legacy"))

	result := p.Run(g)
	out := result.Graph

	legacy := out.StepByName("Legacy")
	require.NotNil(t, legacy, "a non-placeholder name survives kind replacement")
	assert.Equal(t, "base.code", legacy.Kind)
}

func TestCanonicalizeKindsRenamesPlaceholders(t *testing.T) {
	p := newPipeline(t)
	g := testutils.LinearFlow()
	g.Nodes = append(g.Nodes, testutils.NewStep("Node 2", "base.function", 500, 300))
	g.AddEdge(testutils.MainEdge("Fetch", "Node 2"))

	result := p.Run(g)
	out := result.Graph

	assert.Nil(t, out.StepByName("Node 2"))
	renamed := out.StepByName("Code")
	require.NotNil(t, renamed)
	assert.Equal(t, "base.code", renamed.Kind)
	assert.True(t, out.HasEdge(testutils.MainEdge("Fetch", "Code")))
}

func TestCanonicalizeKindsKeepsInfraEdges(t *testing.T) {
	p := newPipeline(t)
	g := testutils.LinearFlow()
	g.Nodes = append(g.Nodes, testutils.NewStep("Old", "memory.buffer", 500, 480))
	g.Nodes = append(g.Nodes, testutils.NewStep("Assistant", "agents.agent", 500, 300))
	g.Nodes = append(g.Nodes, testutils.NewStep("Model", "models.ollamaChat", 300, 480))
	g.AddEdge(testutils.MainEdge("Fetch", "Assistant"))
	g.AddEdge(testutils.InfraEdge("Old", domain.PortMemory, "Assistant"))
	g.AddEdge(testutils.InfraEdge("Model", domain.PortLanguageModel, "Assistant"))

	result := p.Run(g)
	out := result.Graph

	old := out.StepByName("Old")
	require.NotNil(t, old)
	assert.Equal(t, "memory.bufferWindow", old.Kind)

	// The memory edge must still point at the agent.
	require.Len(t, out.InboundByPort("Assistant", domain.PortMemory), 1)
}

func TestStripMisusedToolEdges(t *testing.T) {
	p := newPipeline(t)
	g := testutils.AgentFlow()
	// A plain action emitting a tool edge is invalid and unrecoverable.
	g.Nodes = append(g.Nodes, testutils.NewStep("Fetch", "base.code", 700, 300))
	g.AddEdge(testutils.MainEdge("Assistant", "Fetch"))
	g.AddEdge(testutils.InfraEdge("Fetch", domain.PortTool, "Assistant"))

	result := p.Run(g)
	out := result.Graph
	assert.False(t, out.HasEdge(domain.Edge{Source: "Fetch", Port: domain.PortTool, Target: "Assistant"}))
	assert.True(t, out.HasEdge(testutils.MainEdge("Assistant", "Fetch")), "main edges survive")
}

func TestPromoteServiceTools(t *testing.T) {
	p := newPipeline(t)

	t.Run("isolated service with agent present", func(t *testing.T) {
		g := testutils.AgentFlow()
		g.Nodes = append(g.Nodes, testutils.NewStep("Lookup", "base.httpRequest", 0, 700))

		result := p.Run(g)
		lookup := result.Graph.StepByName("Lookup")
		require.NotNil(t, lookup)
		assert.Equal(t, "tools.httpRequest", lookup.Kind)

		// Reconnect-orphans then wires the new tool into the agent.
		assert.True(t, result.Graph.HasEdge(domain.Edge{Source: "Lookup", Port: domain.PortTool, Target: "Assistant"}))
	})

	t.Run("no agent means no promotion", func(t *testing.T) {
		g := testutils.LinearFlow()
		g.Nodes = append(g.Nodes, testutils.NewStep("Lookup", "base.httpRequest", 0, 700))

		result := p.Run(g)
		lookup := result.Graph.StepByName("Lookup")
		require.NotNil(t, lookup)
		assert.Equal(t, "base.httpRequest", lookup.Kind)
	})

	t.Run("main-chain service is left alone", func(t *testing.T) {
		g := testutils.AgentFlow()
		g.Nodes = append(g.Nodes, testutils.NewStep("Lookup", "base.httpRequest", 700, 300))
		g.AddEdge(testutils.MainEdge("Assistant", "Lookup"))

		result := p.Run(g)
		assert.Equal(t, "base.httpRequest", result.Graph.StepByName("Lookup").Kind)
	})
}

func TestStripModelLiterals(t *testing.T) {
	p := newPipeline(t)
	g := testutils.AgentFlow()
	model := g.StepByName("Model")
	model.Parameters = map[string]any{
		"model":       "gpt-4o-mini",
		"fallback":    "Claude Sonnet",
		"temperature": 0.2,
	}

	result := p.Run(g)
	out := result.Graph.StepByName("Model")

	assert.NotContains(t, out.Parameters, "model")
	assert.NotContains(t, out.Parameters, "fallback")
	assert.Equal(t, 0.2, out.Parameters["temperature"], "non-matching parameters survive")
	assert.Equal(t, map[string]any{}, out.Parameters["options"], "an empty options container is left behind")
}

func TestStripModelLiteralsIgnoresNonModels(t *testing.T) {
	p := newPipeline(t)
	g := testutils.LinearFlow()
	g.StepByName("Fetch").Parameters["body"] = "ask gpt-4 for a summary"

	result := p.Run(g)
	assert.Equal(t, "ask gpt-4 for a summary", result.Graph.StepByName("Fetch").Parameters["body"])
}

func TestReverseBackwardsToolEdges(t *testing.T) {
	p := newPipeline(t)
	g := testutils.AgentFlow()
	g.RemoveEdge(testutils.InfraEdge("Calculator", domain.PortTool, "Assistant"))
	g.AddEdge(testutils.InfraEdge("Assistant", domain.PortTool, "Calculator"))

	result := p.Run(g)
	out := result.Graph

	assert.True(t, out.HasEdge(domain.Edge{Source: "Calculator", Port: domain.PortTool, Target: "Assistant"}))
	assert.False(t, out.HasEdge(domain.Edge{Source: "Assistant", Port: domain.PortTool, Target: "Calculator"}))
}

func TestReverseBackwardsToolEdgesDeduplicates(t *testing.T) {
	p := newPipeline(t)
	g := testutils.AgentFlow()
	// Both directions present: the reversal must not create a duplicate.
	g.AddEdge(testutils.InfraEdge("Assistant", domain.PortTool, "Calculator"))

	result := p.Run(g)
	out := result.Graph

	count := 0
	for _, e := range out.Edges() {
		if e.Port == domain.PortTool && e.Source == "Calculator" && e.Target == "Assistant" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestLayoutAuxiliaries(t *testing.T) {
	p := newPipeline(t)
	g := testutils.AgentFlow()
	g.StepByName("Model").Position = []float64{0, 0}
	g.StepByName("Memory").Position = []float64{0, 0}
	g.StepByName("Calculator").Position = []float64{0, 0}

	result := p.Run(g)
	out := result.Graph

	assert.Equal(t, []float64{50, 480}, out.StepByName("Model").Position)
	assert.Equal(t, []float64{450, 480}, out.StepByName("Memory").Position)
	assert.Equal(t, []float64{250, 620}, out.StepByName("Calculator").Position)
}

func TestLayoutToolRowCentering(t *testing.T) {
	p := newPipeline(t)
	g := testutils.AgentFlow()
	g.Nodes = append(g.Nodes, testutils.NewStep("Workflow", "tools.workflow", 0, 0))
	g.AddEdge(testutils.InfraEdge("Workflow", domain.PortTool, "Assistant"))
	g.StepByName("Calculator").Position = []float64{0, 0}

	result := p.Run(g)
	out := result.Graph

	// Two tools centered around the agent at x=250, spaced 160 apart.
	assert.Equal(t, []float64{170, 620}, out.StepByName("Calculator").Position)
	assert.Equal(t, []float64{330, 620}, out.StepByName("Workflow").Position)
}

func TestRepairNames(t *testing.T) {
	p := newPipeline(t)

	t.Run("placeholder renamed with edge rewrite", func(t *testing.T) {
		g := testutils.LinearFlow()
		g.Nodes = append(g.Nodes, testutils.NewStep("Node1", "base.postgres", 500, 300))
		g.AddEdge(testutils.MainEdge("Fetch", "Node1"))
		before := len(g.Edges())

		result := p.Run(g)
		out := result.Graph

		assert.Nil(t, out.StepByName("Node1"))
		renamed := out.StepByName("Postgres")
		require.NotNil(t, renamed)
		assert.Len(t, out.Edges(), before)
		assert.True(t, out.HasEdge(testutils.MainEdge("Fetch", "Postgres")))
	})

	t.Run("duplicate renamed without edge rewrite", func(t *testing.T) {
		g := testutils.LinearFlow()
		g.Nodes = append(g.Nodes, testutils.NewStep("Fetch", "base.postgres", 500, 300))
		g.AddEdge(testutils.MainEdge("Fetch", "Fetch"))

		result := p.Run(g)
		out := result.Graph

		require.NotNil(t, out.StepByName("Postgres"))
		// The self-referencing edge stays with the original name owner.
		assert.True(t, out.HasEdge(testutils.MainEdge("Fetch", "Fetch")))
		assert.Empty(t, out.Outbound("Postgres"))
	})

	t.Run("unnamed step gets a display name", func(t *testing.T) {
		g := testutils.LinearFlow()
		g.Nodes = append(g.Nodes, &domain.Step{Kind: "base.code", Position: []float64{500, 300}, Parameters: map[string]any{}})

		result := p.Run(g)
		require.NotNil(t, result.Graph.StepByName("Code"))
	})
}

func TestNormalizeToolIndices(t *testing.T) {
	p := newPipeline(t)
	g := testutils.AgentFlow()
	g.RemoveEdge(testutils.InfraEdge("Calculator", domain.PortTool, "Assistant"))
	g.AddEdge(domain.Edge{Source: "Calculator", Port: domain.PortTool, Target: "Assistant", TargetIndex: 3})

	result := p.Run(g)
	out := result.Graph

	for _, e := range out.Edges() {
		if e.Port == domain.PortTool {
			assert.Equal(t, 0, e.TargetIndex)
		}
	}
}

func TestPruneFanout(t *testing.T) {
	p := newPipeline(t)

	t.Run("non-router keeps first target", func(t *testing.T) {
		g := testutils.LinearFlow()
		g.Nodes = append(g.Nodes,
			testutils.NewStep("A", "base.code", 500, 100),
			testutils.NewStep("B", "base.code", 500, 500),
		)
		g.AddEdge(testutils.MainEdge("Fetch", "A"))
		g.AddEdge(testutils.MainEdge("Fetch", "B"))

		result := p.Run(g)
		out := result.Graph

		assert.True(t, out.HasEdge(testutils.MainEdge("Fetch", "A")))
		assert.False(t, out.HasEdge(testutils.MainEdge("Fetch", "B")))
	})

	t.Run("router branches freely", func(t *testing.T) {
		g := testutils.LinearFlow()
		g.Nodes = append(g.Nodes,
			testutils.NewStep("Route", "base.switch", 500, 300),
			testutils.NewStep("A", "base.code", 750, 100),
			testutils.NewStep("B", "base.code", 750, 500),
		)
		g.AddEdge(testutils.MainEdge("Fetch", "Route"))
		g.AddEdge(testutils.MainEdge("Route", "A"))
		g.AddEdge(testutils.MainEdge("Route", "B"))

		result := p.Run(g)
		assert.False(t, result.Changed, "router fanout is legitimate: %v", result.Fixes)
	})
}

func TestPruneFanoutInLongChain(t *testing.T) {
	p := newPipeline(t)

	// Ten sequential steps, with Step 3 branching ahead to Step 7 as well.
	g := &domain.FlowGraph{Nodes: []*domain.Step{testutils.NewStep("Trigger", "base.manualTrigger", 0, 300)}}
	names := []string{"Trigger"}
	for i := 1; i <= 10; i++ {
		name := fmt.Sprintf("Task %d", i)
		g.Nodes = append(g.Nodes, testutils.NewStep(name, "base.code", float64(i)*250, 300))
		g.AddEdge(testutils.MainEdge(names[len(names)-1], name))
		names = append(names, name)
	}
	g.AddEdge(testutils.MainEdge("Task 3", "Task 7"))

	result := p.Run(g)
	out := result.Graph

	assert.True(t, out.HasEdge(testutils.MainEdge("Task 3", "Task 4")))
	assert.False(t, out.HasEdge(testutils.MainEdge("Task 3", "Task 7")))
	// Task 7 keeps its regular inbound edge from Task 6.
	assert.True(t, out.HasEdge(testutils.MainEdge("Task 6", "Task 7")))
}

func TestReconnectOrphans(t *testing.T) {
	p := newPipeline(t)

	t.Run("orphan tool wired to the first agent", func(t *testing.T) {
		g := testutils.AgentFlow()
		g.Nodes = append(g.Nodes, testutils.NewStep("Spare", "tools.workflow", 0, 700))

		result := p.Run(g)
		assert.True(t, result.Graph.HasEdge(domain.Edge{Source: "Spare", Port: domain.PortTool, Target: "Assistant"}))
	})

	t.Run("orphan action spliced after the agent", func(t *testing.T) {
		g := testutils.AgentFlow()
		g.Nodes = append(g.Nodes, testutils.NewStep("Notify", "base.emailSend", 700, 300))

		result := p.Run(g)
		assert.True(t, result.Graph.HasEdge(testutils.MainEdge("Assistant", "Notify")))
	})

	t.Run("orphan action without agent spliced after a chain step", func(t *testing.T) {
		g := testutils.LinearFlow()
		g.Nodes = append(g.Nodes, testutils.NewStep("Notify", "base.emailSend", 700, 300))

		result := p.Run(g)
		assert.True(t, result.Graph.HasEdge(testutils.MainEdge("Fetch", "Notify")))
	})

	t.Run("decorative steps stay loose", func(t *testing.T) {
		g := testutils.LinearFlow()
		g.Nodes = append(g.Nodes, testutils.NewStep("Note", "base.stickyNote", 700, 300))

		result := p.Run(g)
		assert.Empty(t, result.Graph.Inbound("Note"))
		assert.Empty(t, result.Graph.Outbound("Note"))
	})

	t.Run("sole step has nothing to splice into", func(t *testing.T) {
		g := &domain.FlowGraph{Nodes: []*domain.Step{testutils.NewStep("Node1", "base.code", 0, 0)}}

		result := p.Run(g)
		out := result.Graph

		// The placeholder name is repaired, but the step stays orphaned.
		require.Len(t, out.Nodes, 1)
		assert.Equal(t, "Code", out.Nodes[0].Name)
		assert.Empty(t, out.Edges())
		assert.True(t, result.Changed)
	})
}
