package repair

import (
	"fmt"
	"regexp"

	"github.com/aretw0/weft/pkg/domain"
)

// placeholderName matches editor-generated throwaway names like "Node1" or
// "Step 3".
var placeholderName = regexp.MustCompile(`(?i)^(node|step)\s*\d+$`)

// repairNames renames steps whose name is missing, a generic placeholder,
// or a collision with an earlier step. New names derive from the kind's
// display name, uniquified by suffix.
//
// For missing and placeholder names every referencing edge is rewritten
// atomically together with the adjacency key (a partial rewrite would
// silently corrupt the graph). Colliding names are different: their edges
// belong to the first step carrying the name, so the later duplicate is
// renamed without touching any edges.
func (p *Pipeline) repairNames(g *domain.FlowGraph) []string {
	var fixes []string
	seen := make(map[string]bool, len(g.Nodes))
	for _, s := range g.Nodes {
		switch {
		case s.Name != "" && !seen[s.Name] && !placeholderName.MatchString(s.Name):
			seen[s.Name] = true

		case s.Name != "" && seen[s.Name]:
			// Duplicate: rename the step only, leaving edges with the
			// original owner of the name.
			old := s.Name
			s.Name = uniqueName(g, p.policy.DisplayName(s.Kind), "")
			seen[s.Name] = true
			fixes = append(fixes, fmt.Sprintf("renamed duplicate step %q to %q", old, s.Name))

		default:
			// Missing or placeholder name: transactional rename.
			old := s.Name
			newName := uniqueName(g, p.policy.DisplayName(s.Kind), old)
			if newName == old {
				seen[newName] = true
				continue
			}
			g.RenameStep(old, newName)
			seen[newName] = true
			if old == "" {
				fixes = append(fixes, fmt.Sprintf("named unnamed step %q", newName))
			} else {
				fixes = append(fixes, fmt.Sprintf("renamed placeholder step %q to %q", old, newName))
			}
		}
	}
	return fixes
}

// uniqueName returns base if no other step uses it, otherwise the first
// "base N" suffix that is free. self is excluded from the collision check so
// a step may keep its own name.
func uniqueName(g *domain.FlowGraph, base, self string) string {
	if base == "" {
		base = "Step"
	}
	taken := func(name string) bool {
		if name == self {
			return false
		}
		return g.StepByName(name) != nil
	}
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
