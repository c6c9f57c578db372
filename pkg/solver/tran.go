package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/maximerenault/LUPA/pkg/circuit"
	"github.com/maximerenault/LUPA/pkg/element"
)

// Config holds one transient run's settings. Zero tolerances fall back
// to the Newton defaults.
type Config struct {
	Start  float64
	Stop   float64
	Step   float64 // nominal step size
	Method Method  // BDF1, or BDF2 with automatic first-step/step-change fallback

	MaxNewtonIterations int
	AbsTol              float64
	RelTol              float64
	MaxStepRetries      int // step halvings before giving up on a step

	// InitialState, when non-nil, supplies the full initial unknown
	// vector (one entry per label). When nil the run starts from the
	// steady-state solution at Start.
	InitialState []float64

	// Watch, when non-nil, is called synchronously after every accepted
	// step so long runs can be observed incrementally.
	Watch func(Point)
}

// Point is one accepted trajectory sample. State[i] holds the unknown
// named by Trajectory.Labels[i]; never mutated after recording.
type Point struct {
	Time  float64
	State []float64
}

// Trajectory is the ordered, append-only result of one run.
type Trajectory struct {
	Labels []string
	Points []Point
}

// Column extracts one unknown's samples by label.
func (tr *Trajectory) Column(label string) []float64 {
	idx := -1
	for i, l := range tr.Labels {
		if l == label {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(tr.Points))
	for i, p := range tr.Points {
		out[i] = p.State[idx]
	}
	return out
}

// Times returns the sample times.
func (tr *Trajectory) Times() []float64 {
	out := make([]float64, len(tr.Points))
	for i, p := range tr.Points {
		out[i] = p.Time
	}
	return out
}

// Transient sequences time steps from Start to Stop, solving one Newton
// problem per step and recording accepted states. On a ConvergenceError
// the step is halved and retried up to MaxStepRetries; exhausted retries
// surface as SolverFailure. ctx is polled between steps only, so
// cancellation never corrupts already recorded points.
type Transient struct {
	cfg    Config
	newton *Newton
}

func NewTransient(cfg Config) *Transient {
	nr := NewNewton()
	if cfg.MaxNewtonIterations > 0 {
		nr.MaxIter = cfg.MaxNewtonIterations
	}
	if cfg.AbsTol > 0 {
		nr.AbsTol = cfg.AbsTol
		nr.ResTol = cfg.AbsTol * 1e3
	}
	if cfg.RelTol > 0 {
		nr.RelTol = cfg.RelTol
	}
	if cfg.Method == 0 {
		cfg.Method = BDF2
	}
	if cfg.MaxStepRetries == 0 {
		cfg.MaxStepRetries = 10
	}
	return &Transient{cfg: cfg, newton: nr}
}

func (tr *Transient) Run(ctx context.Context, ckt *circuit.Circuit) (*Trajectory, error) {
	cfg := tr.cfg
	if cfg.Step <= 0 || cfg.Stop <= cfg.Start {
		return nil, fmt.Errorf("transient: invalid time range [%g, %g] with step %g",
			cfg.Start, cfg.Stop, cfg.Step)
	}

	size := ckt.Size()
	st := ckt.ZeroStatus()
	st.Time = cfg.Start
	st.Gmin = defaultGmin

	traj := &Trajectory{Labels: ckt.Labels()}

	if cfg.InitialState != nil {
		if len(cfg.InitialState) != size {
			return nil, fmt.Errorf("transient: initial state has %d entries, circuit has %d unknowns",
				len(cfg.InitialState), size)
		}
		copy(st.X[1:], cfg.InitialState)
	} else {
		if err := SteadyState(ckt, tr.newton, st); err != nil {
			return nil, fmt.Errorf("steady-state initialization: %w", err)
		}
	}
	tr.record(traj, cfg.Start, st.X)

	var (
		t     = cfg.Start
		h     = cfg.Step
		prevH = 0.0 // differs from any h, so the first step is BDF1
		hist1 = snapshot(st.X)
		hist2 []float64
	)

	st.Mode = element.Transient
	st.Gmin = defaultGmin

	// roundoff guard so accumulated t cannot demand a vanishing last step
	endSlack := cfg.Step * 1e-9

	for cfg.Stop-t > endSlack {
		if err := ctx.Err(); err != nil {
			return traj, err
		}

		if t+h > cfg.Stop {
			h = cfg.Stop - t
		}

		retries := 0
		for {
			order := orderFor(cfg.Method, hist2 != nil, h == prevH)

			tn := t + h
			st.Time = tn
			st.TimeStep = h
			st.Coeff = leadCoeff(order, h)

			history := [][]float64{hist1}
			if order == 2 {
				history = append(history, hist2)
			}
			refresh := func() { derivative(st.Xdot, st.X, order, h, history) }

			_, err := tr.newton.Solve(ckt, st, refresh, 0)
			if err == nil {
				hist2 = hist1
				hist1 = snapshot(st.X)
				prevH = h
				t = tn
				tr.record(traj, t, st.X)
				break
			}

			var ce *ConvergenceError
			if !errors.As(err, &ce) {
				return traj, err
			}
			if retries >= cfg.MaxStepRetries {
				return traj, &SolverFailure{Time: tn, TimeStep: h, Retries: retries, Err: err}
			}
			retries++
			h /= 2
			copy(st.X, hist1)
		}

		// grow back toward the nominal step after a reduction
		if h < cfg.Step && t < cfg.Stop {
			h *= 2
			if h > cfg.Step {
				h = cfg.Step
			}
		}
	}

	return traj, nil
}

func (tr *Transient) record(traj *Trajectory, t float64, x []float64) {
	p := Point{Time: t, State: append([]float64(nil), x[1:]...)}
	traj.Points = append(traj.Points, p)
	if tr.cfg.Watch != nil {
		tr.cfg.Watch(p)
	}
}

func snapshot(x []float64) []float64 {
	return append([]float64(nil), x...)
}
