package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode converts a loose JSON document (as produced by json.Unmarshal into
// any) into a typed FlowGraph.
//
// Only structural malformation is terminal here: a non-object document, a
// step or parameter bag that is not a plain key-value map, or an adjacency
// structure that cannot be read. Field-level problems (missing name,
// malformed position) survive decoding and are reported by the validator.
func Decode(doc any) (*FlowGraph, error) {
	if g, ok := doc.(*FlowGraph); ok {
		return g.Clone(), nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}

	g := &FlowGraph{}
	if name, ok := m["name"].(string); ok {
		g.Name = name
	}
	if active, ok := m["active"].(bool); ok {
		g.Active = active
	}
	if settings, ok := m["settings"].(map[string]any); ok {
		g.Settings = settings
	}

	if raw, exists := m["nodes"]; exists && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("nodes: %w", ErrNotObject)
		}
		g.Nodes = make([]*Step, 0, len(list))
		for i, rn := range list {
			nm, ok := rn.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("node %d: %w", i, ErrMalformedStep)
			}
			if p, exists := nm["parameters"]; exists && p != nil {
				if _, ok := p.(map[string]any); !ok {
					return nil, fmt.Errorf("node %d: %w", i, ErrMalformedParameters)
				}
			}
			step, err := decodeStep(nm)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			g.Nodes = append(g.Nodes, step)
		}
	}

	if raw, exists := m["connections"]; exists && raw != nil {
		cm, ok := raw.(map[string]any)
		if !ok {
			return nil, ErrMalformedConnections
		}
		conns, err := decodeConnections(cm)
		if err != nil {
			return nil, err
		}
		g.Connections = conns
	}
	if g.Connections == nil {
		g.Connections = make(ConnectionMap)
	}
	return g, nil
}

// decodeStep is deliberately lenient: fields of the wrong shape are dropped
// rather than failing the whole document, so the validator can report them
// as schema errors tied to the step.
func decodeStep(nm map[string]any) (*Step, error) {
	sanitized := make(map[string]any, len(nm))
	for k, v := range nm {
		switch k {
		case "name", "type", "id":
			if _, ok := v.(string); ok {
				sanitized[k] = v
			}
		case "typeVersion":
			if f, ok := toFloat(v); ok {
				sanitized[k] = f
			}
		case "parameters", "credentials":
			if _, ok := v.(map[string]any); ok {
				sanitized[k] = v
			}
		case "disabled":
			if _, ok := v.(bool); ok {
				sanitized[k] = v
			}
		case "position":
			// Handled below; a malformed position decodes to nil.
		default:
			// Unknown keys are inert payload.
		}
	}

	var step Step
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &step})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(sanitized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStep, err)
	}
	step.Position = toFloats(nm["position"])
	return &step, nil
}

func decodeConnections(cm map[string]any) (ConnectionMap, error) {
	out := make(ConnectionMap, len(cm))
	for src, pv := range cm {
		pm, ok := pv.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("connections[%q]: %w", src, ErrMalformedConnections)
		}
		ports := make(map[PortKind][][]PortTarget, len(pm))
		for port, sv := range pm {
			if sv == nil {
				continue
			}
			slotsRaw, ok := sv.([]any)
			if !ok {
				return nil, fmt.Errorf("connections[%q][%q]: %w", src, port, ErrMalformedConnections)
			}
			slots := make([][]PortTarget, 0, len(slotsRaw))
			for _, slotRaw := range slotsRaw {
				if slotRaw == nil {
					// Editors emit null for disconnected output slots.
					slots = append(slots, []PortTarget{})
					continue
				}
				list, ok := slotRaw.([]any)
				if !ok {
					return nil, fmt.Errorf("connections[%q][%q]: %w", src, port, ErrMalformedConnections)
				}
				var targets []PortTarget
				if err := mapstructure.Decode(list, &targets); err != nil {
					return nil, fmt.Errorf("connections[%q][%q]: %w: %v", src, port, ErrMalformedConnections, err)
				}
				slots = append(slots, targets)
			}
			ports[PortKind(port)] = slots
		}
		out[src] = ports
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toFloats coerces a raw position value to a float slice, returning nil for
// anything that is not a list of numbers. Length is preserved so the
// validator can flag positions that are not exactly two elements.
func toFloats(v any) []float64 {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		f, ok := toFloat(item)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}
