package element

import (
	"math"

	"github.com/maximerenault/LUPA/internal/consts"
	"github.com/maximerenault/LUPA/pkg/matrix"
)

// Exponent cap for the Shockley characteristic. Past it the curve
// continues as its tangent line, keeping it C1-smooth and strictly
// increasing so the Newton Jacobian stays well defined.
const expArgMax = 40.0

// Diode implements the Shockley equation I = Is·(exp(Vd/(N·Vt)) - 1).
// State dependent, so it is restamped at every Newton iteration.
type Diode struct {
	BaseElement
	Is float64 // saturation current
	N  float64 // ideality factor
	Vt float64 // thermal voltage
}

func NewDiode(name string) *Diode {
	return &Diode{
		BaseElement: BaseElement{Name: name, Nodes: make([]int, 2)},
		Is:          1e-14,
		N:           1.0,
		Vt:          consts.THERMALVOLTAGE,
	}
}

// SetModelParameters overrides is, n and vt where present.
func (d *Diode) SetModelParameters(params map[string]float64) {
	if is, ok := params["is"]; ok {
		d.Is = is
	}
	if n, ok := params["n"]; ok {
		d.N = n
	}
	if vt, ok := params["vt"]; ok {
		d.Vt = vt
	}
}

// Current returns I(vd) of the clamped characteristic.
func (d *Diode) Current(vd float64) float64 {
	i, _ := d.currentAndConductance(vd)
	return i
}

func (d *Diode) currentAndConductance(vd float64) (float64, float64) {
	nvt := d.N * d.Vt
	arg := vd / nvt
	if arg > expArgMax {
		// linear extension beyond the cap
		ex := math.Exp(expArgMax)
		id := d.Is * (ex*(1.0+arg-expArgMax) - 1.0)
		return id, d.Is * ex / nvt
	}
	ex := math.Exp(arg)
	return d.Is * (ex - 1.0), d.Is * ex / nvt
}

func (d *Diode) validate() error {
	if d.Is <= 0 {
		return paramErr(d.Name, "is", d.Is, "saturation current must be positive")
	}
	if d.N <= 0 {
		return paramErr(d.Name, "n", d.N, "ideality factor must be positive")
	}
	if d.Vt <= 0 {
		return paramErr(d.Name, "vt", d.Vt, "thermal voltage must be positive")
	}
	return nil
}

func (d *Diode) GetKind() Kind { return KindDiode }

func (d *Diode) Stamp(m matrix.Stamper, st *Status) error {
	if err := d.validate(); err != nil {
		return err
	}

	n1, n2 := d.Nodes[0], d.Nodes[1]
	vd := st.X[n1] - st.X[n2]

	id, gd := d.currentAndConductance(vd)
	gd += st.Gmin
	id += st.Gmin * vd

	m.AddElement(n1, n1, gd)
	m.AddElement(n1, n2, -gd)
	m.AddElement(n2, n1, -gd)
	m.AddElement(n2, n2, gd)

	m.AddRHS(n1, -id)
	m.AddRHS(n2, id)

	return nil
}
