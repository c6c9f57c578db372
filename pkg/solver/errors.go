package solver

import "fmt"

// ConvergenceError reports a Newton solve that failed within one step.
// The transient driver recovers from it by halving the step and retrying;
// it only escapes wrapped in a SolverFailure.
type ConvergenceError struct {
	Time       float64
	TimeStep   float64
	Iterations int
	Residual   float64
	Msg        string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("newton did not converge at t=%g (h=%g, %d iterations, residual %g): %s",
		e.Time, e.TimeStep, e.Iterations, e.Residual, e.Msg)
}

// SolverFailure reports exhausted step retries. Time and TimeStep identify
// the last attempt for diagnosis.
type SolverFailure struct {
	Time     float64
	TimeStep float64
	Retries  int
	Err      error
}

func (e *SolverFailure) Error() string {
	return fmt.Sprintf("transient failed at t=%g after %d step retries (last h=%g): %v",
		e.Time, e.Retries, e.TimeStep, e.Err)
}

func (e *SolverFailure) Unwrap() error { return e.Err }
