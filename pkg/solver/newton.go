package solver

import (
	"math"

	"github.com/maximerenault/LUPA/pkg/circuit"
	"github.com/maximerenault/LUPA/pkg/element"
)

// Newton drives the per-step nonlinear solve: stamp, factor, solve
// J·delta = -G, correct, until both the residual norm and the last
// correction pass their tolerances. The linear system is solved by sparse
// LU; the Jacobian inverse is never formed.
type Newton struct {
	MaxIter int
	AbsTol  float64 // absolute correction tolerance per unknown
	RelTol  float64 // relative correction tolerance per unknown
	ResTol  float64 // residual infinity-norm tolerance
}

func NewNewton() *Newton {
	return &Newton{
		MaxIter: 100,
		AbsTol:  1e-12,
		RelTol:  1e-6,
		ResTol:  1e-9,
	}
}

// Solve iterates on st.X in place. refresh, when non-nil, recomputes
// st.Xdot from st.X before each assembly (the BDF coupling). gmin is
// added to every matrix diagonal as regularization; it perturbs the
// Jacobian only, never the residual, so the root is unchanged.
//
// Returns the number of linear solves performed. A linear circuit
// converges in one: the first correction lands on the solution and the
// re-assembled residual is at machine precision, which is accepted
// without waiting for a small correction.
func (nr *Newton) Solve(ckt *circuit.Circuit, st *element.Status, refresh func(), gmin float64) (int, error) {
	mat := ckt.Matrix()
	size := ckt.Size()

	prevRes := math.Inf(1)
	rising := 0
	stepOK := false

	for iter := 0; ; iter++ {
		if refresh != nil {
			refresh()
		}
		if err := ckt.Stamp(st); err != nil {
			return iter, err
		}
		mat.LoadGmin(gmin)

		res := maxAbs(mat.RHS()[1 : size+1])
		if res <= nr.ResTol && (iter == 0 || stepOK || res <= nr.ResTol*1e-4) {
			return iter, nil
		}
		if iter >= nr.MaxIter {
			return iter, &ConvergenceError{
				Time: st.Time, TimeStep: st.TimeStep, Iterations: iter, Residual: res,
				Msg: "iteration limit reached",
			}
		}
		if res >= prevRes {
			rising++
			if rising >= 3 {
				return iter, &ConvergenceError{
					Time: st.Time, TimeStep: st.TimeStep, Iterations: iter, Residual: res,
					Msg: "residual rising for 3 consecutive iterations",
				}
			}
		} else {
			rising = 0
		}
		prevRes = res

		if err := mat.Solve(); err != nil {
			return iter, &ConvergenceError{
				Time: st.Time, TimeStep: st.TimeStep, Iterations: iter, Residual: res,
				Msg: err.Error(),
			}
		}

		delta := mat.Solution()
		stepOK = true
		for i := 1; i <= size; i++ {
			st.X[i] += delta[i]
			if math.Abs(delta[i]) > nr.AbsTol+nr.RelTol*math.Abs(st.X[i]) {
				stepOK = false
			}
		}
	}
}

func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}
