// Package netlist defines the circuit description exchanged with the
// editor and file-loading collaborators, and the factory turning branch
// descriptions into elements. YAML tags give the description a plain
// serialized form for the command line front end.
package netlist

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/maximerenault/LUPA/pkg/calculator"
	"github.com/maximerenault/LUPA/pkg/element"
)

// Branch describes one element instance. Nodes are free-form names; the
// reserved names "0" and "gnd" denote the reference node. Value is an
// expression in t; Model carries numeric overrides for diodes.
type Branch struct {
	Name  string             `yaml:"name"`
	Kind  string             `yaml:"kind"`
	Nodes []string           `yaml:"nodes"`
	Value string             `yaml:"value,omitempty"`
	Model map[string]float64 `yaml:"model,omitempty"`
}

// Description is a full circuit: branches plus optional declared nodes
// (for dangling-node checks) and named constants registered with the
// expression calculator before any value is compiled.
type Description struct {
	Name      string             `yaml:"name"`
	Nodes     []string           `yaml:"nodes,omitempty"`
	Branches  []Branch           `yaml:"branches"`
	Constants map[string]float64 `yaml:"constants,omitempty"`
}

// Parse decodes a YAML circuit description.
func Parse(data []byte) (*Description, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parsing circuit description: %w", err)
	}
	return &desc, nil
}

// GroundName reports whether a node name denotes the reference node.
func GroundName(name string) bool {
	return name == "0" || name == "gnd"
}

// nodeCount returns how many terminals a kind has.
func nodeCount(kind element.Kind) int {
	if kind == element.KindGround {
		return 1
	}
	return 2
}

func needsValue(kind element.Kind) bool {
	switch kind {
	case element.KindDiode, element.KindGround:
		return false
	}
	return true
}

// CreateElement builds the element for one branch description. Value
// expressions are compiled here, so malformed expressions surface before
// simulation starts.
func CreateElement(b Branch, calc *calculator.Calculator) (element.Element, error) {
	kind := element.Kind(b.Kind)

	if len(b.Nodes) != nodeCount(kind) {
		return nil, fmt.Errorf("branch %s: kind %s requires %d node(s), got %d",
			b.Name, b.Kind, nodeCount(kind), len(b.Nodes))
	}
	if needsValue(kind) && b.Value == "" {
		return nil, fmt.Errorf("branch %s: kind %s requires a value expression", b.Name, b.Kind)
	}

	var value *element.Param
	if needsValue(kind) {
		var err error
		value, err = element.NewParam(calc, b.Value)
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", b.Name, err)
		}
	}

	switch kind {
	case element.KindResistor:
		return element.NewResistor(b.Name, value), nil
	case element.KindCapacitor:
		return element.NewCapacitor(b.Name, value), nil
	case element.KindInductor:
		return element.NewInductor(b.Name, value), nil
	case element.KindDiode:
		d := element.NewDiode(b.Name)
		if b.Model != nil {
			d.SetModelParameters(b.Model)
		}
		return d, nil
	case element.KindPSource:
		return element.NewPSource(b.Name, value), nil
	case element.KindQSource:
		return element.NewQSource(b.Name, value), nil
	case element.KindGround:
		return element.NewGround(b.Name), nil
	}

	return nil, fmt.Errorf("branch %s: unknown kind %q", b.Name, b.Kind)
}
