package element

import (
	"github.com/maximerenault/LUPA/pkg/matrix"
)

// Capacitor carries the flow C·dV/dt. A time-varying capacitance (an
// elastance waveform in the cardiovascular analogy) additionally
// contributes dC/dt·V, so the stamped flow is d(C·V)/dt.
type Capacitor struct {
	BaseElement
	value *Param
}

func NewCapacitor(name string, value *Param) *Capacitor {
	return &Capacitor{
		BaseElement: BaseElement{Name: name, Nodes: make([]int, 2)},
		value:       value,
	}
}

func (c *Capacitor) GetKind() Kind { return KindCapacitor }

func (c *Capacitor) Stamp(m matrix.Stamper, st *Status) error {
	cv, err := c.value.At(st.Time)
	if err != nil {
		return wrapEval(c.Name, err)
	}
	if cv <= 0 {
		return paramErr(c.Name, "C", cv, "capacitance must be positive")
	}

	n1, n2 := c.Nodes[0], c.Nodes[1]

	if st.Mode == SteadyState {
		// Open branch; a gmin leak keeps floating nodes solvable.
		g := st.Gmin
		if g < 1e-12 {
			g = 1e-12
		}
		i := g * (st.X[n1] - st.X[n2])
		m.AddElement(n1, n1, g)
		m.AddElement(n1, n2, -g)
		m.AddElement(n2, n1, -g)
		m.AddElement(n2, n2, g)
		m.AddRHS(n1, -i)
		m.AddRHS(n2, i)
		return nil
	}

	dc, err := c.value.DerivAt(st.Time)
	if err != nil {
		return wrapEval(c.Name, err)
	}

	vd := st.X[n1] - st.X[n2]
	vddot := st.Xdot[n1] - st.Xdot[n2]
	i := cv*vddot + dc*vd
	g := cv*st.Coeff + dc

	m.AddElement(n1, n1, g)
	m.AddElement(n1, n2, -g)
	m.AddElement(n2, n1, -g)
	m.AddElement(n2, n2, g)

	m.AddRHS(n1, -i)
	m.AddRHS(n2, i)

	return nil
}
