// Package scanners provides read-only advisory scans over a flow graph.
// Scanners only pattern-match and produce advisory text; they never fail a
// validation and never mutate the graph.
package scanners

import (
	"fmt"
	"strings"

	"github.com/aretw0/weft/pkg/catalog"
	"github.com/aretw0/weft/pkg/domain"
)

// secretParamKeys are parameter keys that should never carry literals;
// credentials belong in the credential store, not in graph data.
var secretParamKeys = []string{"apikey", "api_key", "token", "password", "secret", "accesskey"}

// Security scans for credential hygiene problems.
func Security(g *domain.FlowGraph, cat *catalog.Catalog) []string {
	var advice []string
	for _, s := range g.Nodes {
		entry, known := cat.Lookup(s.Kind)

		if known && entry.RequiresCredentials && len(s.Credentials) == 0 {
			advice = append(advice, fmt.Sprintf("step %q (%s) requires %s credentials but has none configured", s.Name, entry.DisplayName, entry.CredentialKind))
		}

		for key, val := range s.Parameters {
			str, ok := val.(string)
			if !ok || str == "" {
				continue
			}
			lower := strings.ToLower(key)
			for _, secret := range secretParamKeys {
				if strings.Contains(lower, secret) {
					advice = append(advice, fmt.Sprintf("step %q embeds a literal in parameter %q; move it to the credential store", s.Name, key))
					break
				}
			}
		}

		if known && entry.Category == catalog.CategoryTrigger && s.Kind == "base.webhook" {
			if _, ok := s.Parameters["authentication"]; !ok {
				advice = append(advice, fmt.Sprintf("webhook trigger %q has no authentication configured", s.Name))
			}
		}
	}
	return advice
}
