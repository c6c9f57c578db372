package element

import (
	"github.com/maximerenault/LUPA/pkg/matrix"
)

// Inductor is current-defined: its flow is an extra unknown and its
// auxiliary row enforces V1 - V2 - L·dI/dt = 0. In the steady-state solve
// the derivative vector is zero and the row degenerates to a short.
type Inductor struct {
	BaseElement
	value     *Param
	branchIdx int
}

func NewInductor(name string, value *Param) *Inductor {
	return &Inductor{
		BaseElement: BaseElement{Name: name, Nodes: make([]int, 2)},
		value:       value,
	}
}

func (l *Inductor) GetKind() Kind          { return KindInductor }
func (l *Inductor) BranchIndex() int       { return l.branchIdx }
func (l *Inductor) SetBranchIndex(idx int) { l.branchIdx = idx }

func (l *Inductor) Stamp(m matrix.Stamper, st *Status) error {
	lv, err := l.value.At(st.Time)
	if err != nil {
		return wrapEval(l.Name, err)
	}
	if lv <= 0 {
		return paramErr(l.Name, "L", lv, "inductance must be positive")
	}

	n1, n2 := l.Nodes[0], l.Nodes[1]
	b := l.branchIdx

	iq := st.X[b]
	m.AddElement(n1, b, 1)
	m.AddElement(n2, b, -1)
	m.AddRHS(n1, -iq)
	m.AddRHS(n2, iq)

	m.AddElement(b, n1, 1)
	m.AddElement(b, n2, -1)
	m.AddElement(b, b, -lv*st.Coeff)
	m.AddRHS(b, -(st.X[n1] - st.X[n2] - lv*st.Xdot[b]))

	return nil
}
