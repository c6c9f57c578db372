package element

import (
	"github.com/maximerenault/LUPA/pkg/matrix"
)

type Resistor struct {
	BaseElement
	value *Param
}

func NewResistor(name string, value *Param) *Resistor {
	return &Resistor{
		BaseElement: BaseElement{Name: name, Nodes: make([]int, 2)},
		value:       value,
	}
}

func (r *Resistor) GetKind() Kind { return KindResistor }

func (r *Resistor) Stamp(m matrix.Stamper, st *Status) error {
	rv, err := r.value.At(st.Time)
	if err != nil {
		return wrapEval(r.Name, err)
	}
	if rv <= 0 {
		return paramErr(r.Name, "R", rv, "resistance must be positive")
	}

	n1, n2 := r.Nodes[0], r.Nodes[1]
	g := 1.0 / rv
	i := g * (st.X[n1] - st.X[n2])

	m.AddElement(n1, n1, g)
	m.AddElement(n1, n2, -g)
	m.AddElement(n2, n1, -g)
	m.AddElement(n2, n2, g)

	m.AddRHS(n1, -i)
	m.AddRHS(n2, i)

	return nil
}
