package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/maximerenault/LUPA/pkg/circuit"
	"github.com/maximerenault/LUPA/pkg/element"
)

const defaultGmin = 1e-12

// SteadyState solves the static system (derivatives zero: capacitors
// open with a gmin leak, inductors short) at st.Time, leaving the result
// in st.X. When the plain Newton solve fails on a hard nonlinear circuit
// it falls back to gmin stepping: solve with a heavily regularized
// Jacobian first, then relax the regularization decade by decade.
func SteadyState(ckt *circuit.Circuit, nr *Newton, st *element.Status) error {
	st.Mode = element.SteadyState
	st.Coeff = 0
	st.Gmin = defaultGmin
	for i := range st.Xdot {
		st.Xdot[i] = 0
	}

	_, err := nr.Solve(ckt, st, nil, 0)
	if err == nil {
		return nil
	}
	var ce *ConvergenceError
	if !errors.As(err, &ce) {
		return err
	}

	numGminSteps := 10
	startGmin := float64(ckt.Size()) * 0.001
	gmin := startGmin * math.Pow(10, float64(numGminSteps))

	for i := range st.X {
		st.X[i] = 0
	}
	for i := 0; i <= numGminSteps; i++ {
		if _, err := nr.Solve(ckt, st, nil, gmin); err != nil {
			return fmt.Errorf("gmin stepping failed at %g: %w", gmin, err)
		}
		gmin /= 10
	}

	_, err = nr.Solve(ckt, st, nil, 0)
	if err != nil {
		return fmt.Errorf("final steady-state solve failed with zero gmin: %w", err)
	}
	return nil
}
