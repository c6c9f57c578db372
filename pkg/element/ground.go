package element

import (
	"github.com/maximerenault/LUPA/pkg/matrix"
)

// Ground pins its single terminal to the reference potential. The pinning
// happens by index assignment (the node is excluded from the unknown
// vector), so the stamp itself is empty.
type Ground struct {
	BaseElement
}

func NewGround(name string) *Ground {
	return &Ground{BaseElement: BaseElement{Name: name, Nodes: make([]int, 1)}}
}

func (g *Ground) GetKind() Kind { return KindGround }

func (g *Ground) Stamp(m matrix.Stamper, st *Status) error { return nil }
