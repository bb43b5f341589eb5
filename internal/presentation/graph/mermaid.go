package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/weft/pkg/catalog"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/policy"
)

// GenerateMermaid produces a Mermaid flowchart syntax string from a flow
// graph. It applies semantic styling:
// - Trigger: ((Circle))
// - Agent: [[Subroutine]]
// - Router: {Diamond}
// - Default: [Rectangle]
// Main edges render solid; agent-infrastructure edges (tool, languageModel,
// memory) render dotted with the port kind as label.
func GenerateMermaid(g *domain.FlowGraph, pol *policy.Table) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, s := range g.Nodes {
		safeID := sanitizeMermaidID(s.Name)
		if safeID == "" {
			continue
		}

		opener, closer := "[", "]"
		switch pol.Category(s.Kind) {
		case catalog.CategoryTrigger:
			opener, closer = "((", "))" // Circle
		case catalog.CategoryAgent:
			opener, closer = "[[", "]]" // Subroutine
		case catalog.CategoryRouter:
			opener, closer = "{", "}" // Diamond
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, s.Name, closer))
	}

	for _, e := range g.Edges() {
		safeFrom := sanitizeMermaidID(e.Source)
		safeTo := sanitizeMermaidID(e.Target)
		if safeFrom == "" || safeTo == "" {
			continue
		}
		arrow := "-->"
		if e.Port.AgentInfra() {
			arrow = fmt.Sprintf("-. \"%s\" .->", e.Port)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeFrom, arrow, safeTo))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
