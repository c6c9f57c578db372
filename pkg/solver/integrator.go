package solver

// Method selects the time discretization: BDF1 everywhere, or BDF2 with
// automatic BDF1 fallback on the first step and on any step whose size
// differs from the previous accepted one (BDF2 with unequal steps would
// need a variable-coefficient formula).
type Method int

const (
	BDF1 Method = iota + 1
	BDF2
)

// bdfFormula holds the fixed-step coefficients of x'_n scaled by 1/h:
// x'_n = (lead·x_n + hist[0]·x_{n-1} + hist[1]·x_{n-2}) / h.
type bdfFormula struct {
	lead float64
	hist []float64
}

var bdfFormulas = [...]bdfFormula{
	{1.0, []float64{-1.0}},
	{1.5, []float64{-2.0, 0.5}},
}

// orderFor picks the order for one step attempt: first order unless the
// method allows BDF2, two accepted states exist and the step size equals
// the previous accepted one.
func orderFor(method Method, haveTwoStates bool, sameStep bool) int {
	if method == BDF2 && haveTwoStates && sameStep {
		return 2
	}
	return 1
}

// leadCoeff returns the BDF leading coefficient divided by h.
func leadCoeff(order int, h float64) float64 {
	return bdfFormulas[order-1].lead / h
}

// derivative fills xdot with the BDF approximation of x' from the current
// iterate x and the accepted history states (most recent first). All
// vectors are 1-based.
func derivative(xdot, x []float64, order int, h float64, history [][]float64) {
	f := bdfFormulas[order-1]
	for i := range xdot {
		d := f.lead * x[i]
		for k, c := range f.hist {
			d += c * history[k][i]
		}
		xdot[i] = d / h
	}
	xdot[0] = 0
}
