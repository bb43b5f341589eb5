package domain

import "sort"

// PortTarget is one endpoint record inside the adjacency map.
// Type mirrors the port kind of the slot it belongs to; Index is the
// input slot index on the target step.
type PortTarget struct {
	Node  string   `json:"node" mapstructure:"node"`
	Type  PortKind `json:"type" mapstructure:"type"`
	Index int      `json:"index" mapstructure:"index"`
}

// ConnectionMap is the adjacency structure: source step name -> port kind ->
// output slot -> parallel targets. The nested slices allow multiple parallel
// targets per output slot.
type ConnectionMap map[string]map[PortKind][][]PortTarget

// Edge is a flattened view of one connection record.
type Edge struct {
	Source      string   `json:"source"`
	Port        PortKind `json:"port"`
	SourceIndex int      `json:"sourceIndex"`
	Target      string   `json:"target"`
	TargetIndex int      `json:"targetIndex"`
}

// FlowGraph is the full flow document: ordered steps plus adjacency.
type FlowGraph struct {
	Name        string         `json:"name,omitempty" mapstructure:"name"`
	Nodes       []*Step        `json:"nodes" mapstructure:"-"`
	Connections ConnectionMap  `json:"connections" mapstructure:"-"`
	Active      bool           `json:"active,omitempty" mapstructure:"active"`
	Settings    map[string]any `json:"settings,omitempty" mapstructure:"settings"`
}

// StepByName returns the step with the given name, or nil.
func (g *FlowGraph) StepByName(name string) *Step {
	for _, s := range g.Nodes {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// HasStep reports whether a step with the given name exists.
func (g *FlowGraph) HasStep(name string) bool {
	return g.StepByName(name) != nil
}

// Edges flattens the adjacency map into a deterministic list: sources in
// step-declaration order (unresolved sources last, sorted), ports in
// canonical order, slots and targets in declared order.
func (g *FlowGraph) Edges() []Edge {
	var edges []Edge
	seen := make(map[string]bool, len(g.Nodes))
	for _, s := range g.Nodes {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		edges = append(edges, g.sourceEdges(s.Name)...)
	}

	// Adjacency keys that do not resolve to a step are still edges; the
	// validator reports them as dangling references.
	var loose []string
	for src := range g.Connections {
		if !seen[src] {
			loose = append(loose, src)
		}
	}
	sort.Strings(loose)
	for _, src := range loose {
		edges = append(edges, g.sourceEdges(src)...)
	}
	return edges
}

func (g *FlowGraph) sourceEdges(source string) []Edge {
	ports, ok := g.Connections[source]
	if !ok {
		return nil
	}
	var edges []Edge
	for _, port := range portOrder(ports) {
		for slot, targets := range ports[port] {
			for _, t := range targets {
				edges = append(edges, Edge{
					Source:      source,
					Port:        port,
					SourceIndex: slot,
					Target:      t.Node,
					TargetIndex: t.Index,
				})
			}
		}
	}
	return edges
}

// portOrder returns the port kinds present in the map, canonical kinds
// first, unknown kinds after in lexical order.
func portOrder(ports map[PortKind][][]PortTarget) []PortKind {
	var order []PortKind
	for _, p := range PortKinds() {
		if _, ok := ports[p]; ok {
			order = append(order, p)
		}
	}
	var extra []PortKind
	for p := range ports {
		if !p.Known() {
			extra = append(extra, p)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(order, extra...)
}

// Outbound returns all edges originating at the named step.
func (g *FlowGraph) Outbound(name string) []Edge {
	return g.sourceEdges(name)
}

// Inbound returns all edges terminating at the named step.
func (g *FlowGraph) Inbound(name string) []Edge {
	var in []Edge
	for _, e := range g.Edges() {
		if e.Target == name {
			in = append(in, e)
		}
	}
	return in
}

// InboundByPort returns inbound edges of one port kind.
func (g *FlowGraph) InboundByPort(name string, port PortKind) []Edge {
	var in []Edge
	for _, e := range g.Inbound(name) {
		if e.Port == port {
			in = append(in, e)
		}
	}
	return in
}

// HasEdge reports whether an identical edge already exists.
func (g *FlowGraph) HasEdge(e Edge) bool {
	for _, have := range g.sourceEdges(e.Source) {
		if have == e {
			return true
		}
	}
	return false
}

// AddEdge inserts an edge, growing the slot list as needed.
func (g *FlowGraph) AddEdge(e Edge) {
	if g.Connections == nil {
		g.Connections = make(ConnectionMap)
	}
	ports := g.Connections[e.Source]
	if ports == nil {
		ports = make(map[PortKind][][]PortTarget)
		g.Connections[e.Source] = ports
	}
	slots := ports[e.Port]
	for len(slots) <= e.SourceIndex {
		slots = append(slots, []PortTarget{})
	}
	slots[e.SourceIndex] = append(slots[e.SourceIndex], PortTarget{
		Node:  e.Target,
		Type:  e.Port,
		Index: e.TargetIndex,
	})
	ports[e.Port] = slots
}

// RemoveEdge deletes the first matching edge. Returns false if absent.
func (g *FlowGraph) RemoveEdge(e Edge) bool {
	ports, ok := g.Connections[e.Source]
	if !ok {
		return false
	}
	slots, ok := ports[e.Port]
	if !ok || e.SourceIndex >= len(slots) {
		return false
	}
	targets := slots[e.SourceIndex]
	for i, t := range targets {
		if t.Node == e.Target && t.Index == e.TargetIndex {
			slots[e.SourceIndex] = append(targets[:i:i], targets[i+1:]...)
			return true
		}
	}
	return false
}

// RenameStep renames a step and atomically rewrites every edge that
// references the old name, both as adjacency key and as the target field
// inside connection records. A partial rewrite would silently corrupt the
// graph, so all rewrites happen in one walk before returning.
func (g *FlowGraph) RenameStep(oldName, newName string) {
	if oldName == newName {
		return
	}
	if s := g.StepByName(oldName); s != nil {
		s.Name = newName
	}
	if ports, ok := g.Connections[oldName]; ok {
		delete(g.Connections, oldName)
		g.Connections[newName] = ports
	}
	for _, ports := range g.Connections {
		for _, slots := range ports {
			for _, targets := range slots {
				for i := range targets {
					if targets[i].Node == oldName {
						targets[i].Node = newName
					}
				}
			}
		}
	}
}

// Clone returns a deep copy of the graph. Mutating the copy never touches
// the original, including nested parameter payloads.
func (g *FlowGraph) Clone() *FlowGraph {
	if g == nil {
		return nil
	}
	out := &FlowGraph{
		Name:     g.Name,
		Active:   g.Active,
		Settings: cloneMap(g.Settings),
	}
	if g.Nodes != nil {
		out.Nodes = make([]*Step, len(g.Nodes))
		for i, s := range g.Nodes {
			out.Nodes[i] = cloneStep(s)
		}
	}
	if g.Connections != nil {
		out.Connections = make(ConnectionMap, len(g.Connections))
		for src, ports := range g.Connections {
			cp := make(map[PortKind][][]PortTarget, len(ports))
			for port, slots := range ports {
				cs := make([][]PortTarget, len(slots))
				for i, targets := range slots {
					cs[i] = append([]PortTarget(nil), targets...)
				}
				cp[port] = cs
			}
			out.Connections[src] = cp
		}
	}
	return out
}

func cloneStep(s *Step) *Step {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Position = append([]float64(nil), s.Position...)
	cp.Parameters = cloneMap(s.Parameters)
	cp.Credentials = cloneMap(s.Credentials)
	return &cp
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		// Scalars (and json.Number) are immutable.
		return v
	}
}
