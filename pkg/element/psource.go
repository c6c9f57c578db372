package element

import (
	"github.com/maximerenault/LUPA/pkg/matrix"
)

// PSource is a pressure (voltage) source: current-defined, its auxiliary
// row enforces V1 - V2 = value(t). The value expression is re-evaluated
// each stamp, so waveforms like "sin(2*pi*t)" work directly.
type PSource struct {
	BaseElement
	value     *Param
	branchIdx int
}

func NewPSource(name string, value *Param) *PSource {
	return &PSource{
		BaseElement: BaseElement{Name: name, Nodes: make([]int, 2)},
		value:       value,
	}
}

func (p *PSource) GetKind() Kind          { return KindPSource }
func (p *PSource) BranchIndex() int       { return p.branchIdx }
func (p *PSource) SetBranchIndex(idx int) { p.branchIdx = idx }

// Value evaluates the source pressure at time t.
func (p *PSource) Value(t float64) (float64, error) {
	v, err := p.value.At(t)
	if err != nil {
		return 0, wrapEval(p.Name, err)
	}
	return v, nil
}

func (p *PSource) Stamp(m matrix.Stamper, st *Status) error {
	val, err := p.Value(st.Time)
	if err != nil {
		return err
	}

	n1, n2 := p.Nodes[0], p.Nodes[1]
	b := p.branchIdx

	iq := st.X[b]
	m.AddElement(n1, b, 1)
	m.AddElement(n2, b, -1)
	m.AddRHS(n1, -iq)
	m.AddRHS(n2, iq)

	m.AddElement(b, n1, 1)
	m.AddElement(b, n2, -1)
	m.AddRHS(b, -(st.X[n1] - st.X[n2] - val))

	return nil
}
