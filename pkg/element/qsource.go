package element

import (
	"github.com/maximerenault/LUPA/pkg/matrix"
)

// QSource is a flow (current) source: value(t) flows from the first node
// to the second through the branch. No auxiliary unknown.
type QSource struct {
	BaseElement
	value *Param
}

func NewQSource(name string, value *Param) *QSource {
	return &QSource{
		BaseElement: BaseElement{Name: name, Nodes: make([]int, 2)},
		value:       value,
	}
}

func (q *QSource) GetKind() Kind { return KindQSource }

func (q *QSource) Stamp(m matrix.Stamper, st *Status) error {
	val, err := q.value.At(st.Time)
	if err != nil {
		return wrapEval(q.Name, err)
	}

	n1, n2 := q.Nodes[0], q.Nodes[1]
	m.AddRHS(n1, -val)
	m.AddRHS(n2, val)

	return nil
}
