// Package circuit holds the frozen topology of one network: node and
// auxiliary branch index assignment, structural validation, and the stamp
// loop assembling the Newton system from the per-element contributions.
package circuit

import (
	"fmt"

	"github.com/maximerenault/LUPA/pkg/calculator"
	"github.com/maximerenault/LUPA/pkg/element"
	"github.com/maximerenault/LUPA/pkg/matrix"
	"github.com/maximerenault/LUPA/pkg/netlist"
)

// Circuit is the validated, index-assigned network. It is frozen after
// New: a transient run reads it but never mutates it, so independent runs
// need independent Circuit instances.
type Circuit struct {
	name      string
	calc      *calculator.Calculator
	grounded  map[string]bool
	nodeMap   map[string]int
	branchMap map[string]int
	nodeNames []string // index 1..numNodes, assignment order
	auxNames  []string // auxiliary rows, assignment order
	elements  []element.Element
	numNodes  int
	size      int
	mat       *matrix.SystemMatrix
}

// New validates the description, builds the elements and assigns the
// unknown vector layout: non-ground node potentials first, then one flow
// unknown per current-defined branch. Ground nodes take index 0.
func New(desc *netlist.Description) (*Circuit, error) {
	if err := validate(desc); err != nil {
		return nil, err
	}

	calc := calculator.New()
	for name, value := range desc.Constants {
		if err := calc.SetConstant(name, value); err != nil {
			return nil, fmt.Errorf("circuit %s: %w", desc.Name, err)
		}
	}

	c := &Circuit{
		name:      desc.Name,
		calc:      calc,
		nodeMap:   make(map[string]int),
		branchMap: make(map[string]int),
	}

	c.grounded = groundedNodes(desc)
	c.assignNodes(desc, c.grounded)

	if err := c.setupElements(desc); err != nil {
		return nil, err
	}

	mat, err := matrix.New(c.size)
	if err != nil {
		return nil, fmt.Errorf("circuit %s: %w", c.name, err)
	}
	c.mat = mat

	// Stamp once at t=0 so the sparsity pattern exists before the first
	// factorization, then surface parameter errors early.
	st := c.ZeroStatus()
	if err := c.Stamp(st); err != nil {
		c.mat.Destroy()
		return nil, err
	}
	c.mat.SetupElements()

	return c, nil
}

func (c *Circuit) assignNodes(desc *netlist.Description, grounded map[string]bool) {
	for _, b := range desc.Branches {
		for _, nodeName := range b.Nodes {
			if grounded[nodeName] {
				continue
			}
			if _, exists := c.nodeMap[nodeName]; !exists {
				c.nodeMap[nodeName] = len(c.nodeMap) + 1
				c.nodeNames = append(c.nodeNames, nodeName)
			}
		}
	}
	c.numNodes = len(c.nodeMap)

	auxStart := c.numNodes + 1
	for _, b := range desc.Branches {
		kind := element.Kind(b.Kind)
		if kind == element.KindInductor || kind == element.KindPSource {
			c.branchMap[b.Name] = auxStart
			c.auxNames = append(c.auxNames, b.Name)
			auxStart++
		}
	}
	c.size = c.numNodes + len(c.branchMap)
}

func (c *Circuit) setupElements(desc *netlist.Description) error {
	for _, b := range desc.Branches {
		elem, err := netlist.CreateElement(b, c.calc)
		if err != nil {
			return &TopologyError{Circuit: desc.Name, Branch: b.Name, Msg: err.Error()}
		}

		nodeIndices := make([]int, len(b.Nodes))
		for i, nodeName := range b.Nodes {
			if c.grounded[nodeName] {
				nodeIndices[i] = 0
				continue
			}
			nodeIndices[i] = c.nodeMap[nodeName]
		}
		elem.SetNodes(nodeIndices)

		if cd, ok := elem.(element.CurrentDefined); ok {
			cd.SetBranchIndex(c.branchMap[elem.GetName()])
		}

		c.elements = append(c.elements, elem)
	}
	return nil
}

// Stamp zeroes the system and accumulates every element's contribution at
// the given status. One call per Newton iteration.
func (c *Circuit) Stamp(st *element.Status) error {
	c.mat.Clear()
	for _, elem := range c.elements {
		if err := elem.Stamp(c.mat, st); err != nil {
			return err
		}
	}
	return nil
}

// ZeroStatus returns a steady-state status with zeroed state vectors,
// sized for this circuit.
func (c *Circuit) ZeroStatus() *element.Status {
	return &element.Status{
		Mode: element.SteadyState,
		X:    make([]float64, c.size+1),
		Xdot: make([]float64, c.size+1),
	}
}

// Residual evaluates minus the residual vector -G at the given status
// without solving. The returned slice is 1-based like the state vectors.
func (c *Circuit) Residual(st *element.Status) ([]float64, error) {
	if err := c.Stamp(st); err != nil {
		return nil, err
	}
	rhs := c.mat.RHS()
	out := make([]float64, len(rhs))
	copy(out, rhs)
	return out, nil
}

func (c *Circuit) Name() string                 { return c.name }
func (c *Circuit) Size() int                    { return c.size }
func (c *Circuit) NumNodes() int                { return c.numNodes }
func (c *Circuit) Matrix() *matrix.SystemMatrix { return c.mat }
func (c *Circuit) Elements() []element.Element  { return c.elements }

// NodeIndex returns the unknown index of a node name, 0 for ground, -1
// when unknown.
func (c *Circuit) NodeIndex(name string) int {
	if netlist.GroundName(name) || c.grounded[name] {
		return 0
	}
	if idx, ok := c.nodeMap[name]; ok {
		return idx
	}
	return -1
}

// BranchIndex returns the auxiliary row of a current-defined branch, -1
// when the branch has no flow unknown.
func (c *Circuit) BranchIndex(name string) int {
	if idx, ok := c.branchMap[name]; ok {
		return idx
	}
	return -1
}

// Labels names every unknown in vector order: P(node) potentials followed
// by Q(branch) flows. Labels()[i-1] names unknown i.
func (c *Circuit) Labels() []string {
	labels := make([]string, 0, c.size)
	for _, name := range c.nodeNames {
		labels = append(labels, fmt.Sprintf("P(%s)", name))
	}
	for _, name := range c.auxNames {
		labels = append(labels, fmt.Sprintf("Q(%s)", name))
	}
	return labels
}

func (c *Circuit) Destroy() {
	if c.mat != nil {
		c.mat.Destroy()
	}
}
