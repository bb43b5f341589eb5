package domain

// PortKind categorizes a connection slot.
type PortKind string

const (
	// PortMain carries ordinary data flow between steps.
	PortMain PortKind = "main"
	// PortTool wires a tool-capable step into an agent.
	PortTool PortKind = "tool"
	// PortLanguageModel wires a model step into an agent.
	PortLanguageModel PortKind = "languageModel"
	// PortMemory wires a memory step into an agent.
	PortMemory PortKind = "memory"
)

// PortKinds lists all known port kinds in canonical order.
func PortKinds() []PortKind {
	return []PortKind{PortMain, PortTool, PortLanguageModel, PortMemory}
}

// Known reports whether the port kind is one of the four canonical kinds.
func (p PortKind) Known() bool {
	switch p {
	case PortMain, PortTool, PortLanguageModel, PortMemory:
		return true
	}
	return false
}

// AgentInfra reports whether the port kind is agent infrastructure wiring
// (tool, languageModel or memory) as opposed to the main execution chain.
func (p PortKind) AgentInfra() bool {
	return p == PortTool || p == PortLanguageModel || p == PortMemory
}

// Step is a single processing unit in the flow graph.
// Name is the addressing key used by edges; Kind is the node-type tag
// resolved against the catalog. Parameters is an opaque payload the engine
// inspects only through a narrow deny-list scan.
type Step struct {
	ID          string         `json:"id,omitempty" mapstructure:"id"`
	Name        string         `json:"name" mapstructure:"name"`
	Kind        string         `json:"type" mapstructure:"type"`
	TypeVersion float64        `json:"typeVersion,omitempty" mapstructure:"typeVersion"`
	Position    []float64      `json:"position" mapstructure:"position"`
	Parameters  map[string]any `json:"parameters" mapstructure:"parameters"`
	Credentials map[string]any `json:"credentials,omitempty" mapstructure:"credentials"`
	Disabled    bool           `json:"disabled,omitempty" mapstructure:"disabled"`
}

// HasPosition reports whether the step carries a well-formed 2D position.
func (s *Step) HasPosition() bool {
	return len(s.Position) == 2
}
