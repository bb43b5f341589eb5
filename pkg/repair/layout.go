package repair

import (
	"fmt"

	"github.com/aretw0/weft/pkg/domain"
)

// Geometric offsets for agent auxiliaries, relative to the agent position.
// Purely a layout concern for downstream editors; no semantic effect.
const (
	modelOffsetX  = -200
	modelOffsetY  = 180
	memoryOffsetX = 200
	memoryOffsetY = 180
	toolRowY      = 320
	toolSpacing   = 160
)

// layoutAuxiliaries assigns fixed offsets to every model, memory and tool
// step connected to an agent: the model below-left, the memory mirrored
// below-right, tools in a centered row further below.
func (p *Pipeline) layoutAuxiliaries(g *domain.FlowGraph) []string {
	var fixes []string
	for _, agent := range g.Nodes {
		if !p.policy.IsAgent(agent.Kind) || !agent.HasPosition() || agent.Name == "" {
			continue
		}
		ax, ay := agent.Position[0], agent.Position[1]

		for _, e := range g.InboundByPort(agent.Name, domain.PortLanguageModel) {
			if s := g.StepByName(e.Source); s != nil && p.policy.IsModel(s.Kind) {
				fixes = append(fixes, placeAt(s, ax+modelOffsetX, ay+modelOffsetY)...)
			}
		}
		for _, e := range g.InboundByPort(agent.Name, domain.PortMemory) {
			if s := g.StepByName(e.Source); s != nil && p.policy.IsMemory(s.Kind) {
				fixes = append(fixes, placeAt(s, ax+memoryOffsetX, ay+memoryOffsetY)...)
			}
		}

		toolEdges := g.InboundByPort(agent.Name, domain.PortTool)
		n := len(toolEdges)
		for i, e := range toolEdges {
			s := g.StepByName(e.Source)
			if s == nil || !p.policy.ToolCapable(s.Kind) {
				continue
			}
			x := ax + (float64(i)-float64(n-1)/2)*toolSpacing
			fixes = append(fixes, placeAt(s, x, ay+toolRowY)...)
		}
	}
	return fixes
}

func placeAt(s *domain.Step, x, y float64) []string {
	if s.HasPosition() && s.Position[0] == x && s.Position[1] == y {
		return nil
	}
	s.Position = []float64{x, y}
	return []string{fmt.Sprintf("repositioned %q next to its agent", s.Name)}
}
