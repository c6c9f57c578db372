// Package element implements the per-branch stamps: each element adds its
// contribution to the Newton iteration matrix and to minus the residual at
// its incident node rows and, for current-defined elements, its own
// auxiliary row. Node rows are Kirchhoff balance equations (sum of flows
// leaving the node equals zero); branch flow runs from the first node to
// the second.
package element

import (
	"fmt"

	"github.com/maximerenault/LUPA/pkg/matrix"
)

type Kind string

const (
	KindResistor  Kind = "R"
	KindCapacitor Kind = "C"
	KindInductor  Kind = "L"
	KindDiode     Kind = "D"
	KindPSource   Kind = "P" // pressure / voltage source
	KindQSource   Kind = "Q" // flow / current source
	KindGround    Kind = "G"
)

type AnalysisMode int

const (
	SteadyState AnalysisMode = iota
	Transient
)

// Status carries everything a stamp may depend on at one Newton
// iteration. X and Xdot are 1-based (index 0 is ground and always zero);
// Coeff is the BDF leading coefficient divided by the step size, zero for
// the steady-state solve.
type Status struct {
	Mode     AnalysisMode
	Time     float64
	TimeStep float64
	Coeff    float64
	Gmin     float64
	X        []float64
	Xdot     []float64
}

type Element interface {
	GetName() string
	GetKind() Kind
	GetNodes() []int
	SetNodes(nodes []int)
	Stamp(m matrix.Stamper, st *Status) error
}

// CurrentDefined elements carry their flow as an extra unknown and own an
// auxiliary equation row (inductors, pressure sources).
type CurrentDefined interface {
	Element
	BranchIndex() int
	SetBranchIndex(idx int)
}

type BaseElement struct {
	Name  string
	Nodes []int
}

func (e *BaseElement) GetName() string      { return e.Name }
func (e *BaseElement) GetNodes() []int      { return e.Nodes }
func (e *BaseElement) SetNodes(nodes []int) { e.Nodes = nodes }

// InvalidParameterError reports a non-physical element parameter. Fatal
// for the circuit that contains it.
type InvalidParameterError struct {
	Element string
	Param   string
	Value   float64
	Msg     string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("element %s: parameter %s=%g: %s", e.Element, e.Param, e.Value, e.Msg)
}
