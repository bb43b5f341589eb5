// Package policy implements the static port-kind capability table: which
// step categories may use which port kinds, and which regular service kinds
// have a tool equivalent. It is a thin, read-only layer over the catalog.
package policy

import (
	"strings"
	"unicode"

	"github.com/aretw0/weft/pkg/catalog"
	"github.com/aretw0/weft/pkg/domain"
)

// capability lists the port kinds a category may use on each side.
type capability struct {
	inbound  []domain.PortKind
	outbound []domain.PortKind
}

// The table is keyed by category; kinds resolve to categories through the
// catalog. Unknown kinds fall back to CategoryAction.
var capabilities = map[catalog.Category]capability{
	catalog.CategoryTrigger: {
		outbound: []domain.PortKind{domain.PortMain},
	},
	catalog.CategoryAction: {
		inbound:  []domain.PortKind{domain.PortMain},
		outbound: []domain.PortKind{domain.PortMain},
	},
	catalog.CategoryRouter: {
		inbound:  []domain.PortKind{domain.PortMain},
		outbound: []domain.PortKind{domain.PortMain},
	},
	catalog.CategoryAgent: {
		inbound:  []domain.PortKind{domain.PortMain, domain.PortTool, domain.PortLanguageModel, domain.PortMemory},
		outbound: []domain.PortKind{domain.PortMain},
	},
	catalog.CategoryModel: {
		outbound: []domain.PortKind{domain.PortLanguageModel},
	},
	catalog.CategoryMemory: {
		outbound: []domain.PortKind{domain.PortMemory},
	},
	catalog.CategoryTool: {
		outbound: []domain.PortKind{domain.PortTool},
	},
	catalog.CategoryDecorative: {},
}

// Table answers capability questions for concrete step kinds.
type Table struct {
	cat *catalog.Catalog
}

// New builds a policy table over the given catalog.
func New(cat *catalog.Catalog) *Table {
	return &Table{cat: cat}
}

// Category resolves a kind to its category; unknown kinds are regular
// actions.
func (t *Table) Category(kind string) catalog.Category {
	if e, ok := t.cat.Lookup(kind); ok {
		return e.Category
	}
	return catalog.CategoryAction
}

// IsTrigger reports whether the kind is an entry-point kind.
func (t *Table) IsTrigger(kind string) bool {
	return t.Category(kind) == catalog.CategoryTrigger
}

// IsAgent reports whether the kind is an autonomous decision unit requiring
// model and memory wiring.
func (t *Table) IsAgent(kind string) bool {
	return t.Category(kind) == catalog.CategoryAgent
}

// IsRouter reports whether the kind legitimately branches its main output.
func (t *Table) IsRouter(kind string) bool {
	return t.Category(kind) == catalog.CategoryRouter
}

// IsModel reports whether the kind is a language-model provider.
func (t *Table) IsModel(kind string) bool {
	return t.Category(kind) == catalog.CategoryModel
}

// IsMemory reports whether the kind is a memory provider.
func (t *Table) IsMemory(kind string) bool {
	return t.Category(kind) == catalog.CategoryMemory
}

// IsDecorative reports whether the kind is a no-op annotation exempt from
// connectivity rules.
func (t *Table) IsDecorative(kind string) bool {
	return t.Category(kind) == catalog.CategoryDecorative
}

// ToolCapable reports whether the kind may be the source of a tool edge.
func (t *Table) ToolCapable(kind string) bool {
	return t.Category(kind) == catalog.CategoryTool
}

// ToolEquivalent returns the tool-kind counterpart of a regular service
// kind, if the catalog defines one.
func (t *Table) ToolEquivalent(kind string) (string, bool) {
	e, ok := t.cat.Lookup(kind)
	if !ok || e.ToolEquivalent == "" {
		return "", false
	}
	return e.ToolEquivalent, true
}

// Canonical maps a deprecated kind to its canonical successor.
func (t *Table) Canonical(kind string) (string, bool) {
	return t.cat.Canonical(kind)
}

// AllowedInbound returns the port kinds the kind accepts.
func (t *Table) AllowedInbound(kind string) []domain.PortKind {
	return capabilities[t.Category(kind)].inbound
}

// AllowedOutbound returns the port kinds the kind may emit.
func (t *Table) AllowedOutbound(kind string) []domain.PortKind {
	return capabilities[t.Category(kind)].outbound
}

// MayEmit reports whether the kind may be the source of the given port kind.
func (t *Table) MayEmit(kind string, port domain.PortKind) bool {
	for _, p := range t.AllowedOutbound(kind) {
		if p == port {
			return true
		}
	}
	return false
}

// DisplayName returns the human-readable name for a kind, derived from the
// kind string when the catalog has no entry.
func (t *Table) DisplayName(kind string) string {
	if e, ok := t.cat.Lookup(kind); ok && e.DisplayName != "" {
		return e.DisplayName
	}
	return deriveDisplayName(kind)
}

// deriveDisplayName turns "pkg.someNodeKind" into "Some Node Kind".
func deriveDisplayName(kind string) string {
	seg := kind
	if i := strings.LastIndex(kind, "."); i >= 0 && i < len(kind)-1 {
		seg = kind[i+1:]
	}
	if seg == "" {
		return "Step"
	}
	var b strings.Builder
	for i, r := range seg {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
