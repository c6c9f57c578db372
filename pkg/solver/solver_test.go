package solver_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximerenault/LUPA/pkg/circuit"
	"github.com/maximerenault/LUPA/pkg/element"
	"github.com/maximerenault/LUPA/pkg/netlist"
	"github.com/maximerenault/LUPA/pkg/solver"
)

func buildCircuit(t *testing.T, desc *netlist.Description) *circuit.Circuit {
	t.Helper()
	ckt, err := circuit.New(desc)
	require.NoError(t, err)
	t.Cleanup(ckt.Destroy)
	return ckt
}

// 1V source charging a capacitor through a resistor, tau = 1ms.
func rcCircuit(t *testing.T) *circuit.Circuit {
	return buildCircuit(t, &netlist.Description{
		Name: "rc",
		Branches: []netlist.Branch{
			{Name: "V1", Kind: "P", Nodes: []string{"in", "0"}, Value: "1"},
			{Name: "R1", Kind: "R", Nodes: []string{"in", "out"}, Value: "1000"},
			{Name: "C1", Kind: "C", Nodes: []string{"out", "0"}, Value: "1e-6"},
		},
	})
}

func diodeCircuit(t *testing.T, source string) *circuit.Circuit {
	return buildCircuit(t, &netlist.Description{
		Name: "diode",
		Branches: []netlist.Branch{
			{Name: "V1", Kind: "P", Nodes: []string{"in", "0"}, Value: source},
			{Name: "R1", Kind: "R", Nodes: []string{"in", "a"}, Value: "100"},
			{Name: "D1", Kind: "D", Nodes: []string{"a", "0"}},
		},
	})
}

// A linear circuit must cost exactly one linear solve: the first
// correction is exact and the re-assembled residual passes on its own.
func TestLinearCircuitOneIteration(t *testing.T) {
	ckt := buildCircuit(t, &netlist.Description{
		Name: "divider",
		Branches: []netlist.Branch{
			{Name: "V1", Kind: "P", Nodes: []string{"in", "0"}, Value: "2"},
			{Name: "R1", Kind: "R", Nodes: []string{"in", "mid"}, Value: "1000"},
			{Name: "R2", Kind: "R", Nodes: []string{"mid", "0"}, Value: "1000"},
		},
	})

	st := ckt.ZeroStatus()
	iters, err := solver.NewNewton().Solve(ckt, st, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, iters)

	assert.InDelta(t, 2.0, st.X[ckt.NodeIndex("in")], 1e-9)
	assert.InDelta(t, 1.0, st.X[ckt.NodeIndex("mid")], 1e-9)
	// source delivers 1mA; branch flow runs in -> 0 through the source
	assert.InDelta(t, -1e-3, st.X[ckt.BranchIndex("V1")], 1e-9)
}

func TestSteadyStateDiode(t *testing.T) {
	ckt := diodeCircuit(t, "1")

	st := ckt.ZeroStatus()
	require.NoError(t, solver.SteadyState(ckt, solver.NewNewton(), st))

	vd := st.X[ckt.NodeIndex("a")]
	assert.Greater(t, vd, 0.4)
	assert.Less(t, vd, 0.9)
	// KVL across the resistor
	assert.InDelta(t, 1.0, st.X[ckt.NodeIndex("in")], 1e-9)
}

func TestRCCharging(t *testing.T) {
	ckt := rcCircuit(t)

	tran := solver.NewTransient(solver.Config{
		Stop:         5e-3,
		Step:         2e-5,
		InitialState: make([]float64, ckt.Size()),
	})
	traj, err := tran.Run(context.Background(), ckt)
	require.NoError(t, err)

	out := traj.Column("P(out)")
	require.NotNil(t, out)
	require.Greater(t, len(out), 2)

	assert.Zero(t, out[0])
	last := traj.Points[len(traj.Points)-1]
	assert.InDelta(t, 5e-3, last.Time, 1e-12)

	exact := 1 - math.Exp(-5)
	assert.InDelta(t, exact, out[len(out)-1], 0.01*exact)

	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i], out[i-1], "charging curve must not dip at sample %d", i)
	}
}

// Every accepted state must satisfy the node balance equations when the
// same backward difference the solver used is replayed against it.
func TestAcceptedStatesSatisfyKCL(t *testing.T) {
	ckt := rcCircuit(t)

	tran := solver.NewTransient(solver.Config{
		Stop:         2e-3,
		Step:         5e-5,
		Method:       solver.BDF1,
		InitialState: make([]float64, ckt.Size()),
	})
	traj, err := tran.Run(context.Background(), ckt)
	require.NoError(t, err)

	size := ckt.Size()
	st := ckt.ZeroStatus()
	st.Mode = element.Transient

	for i := 1; i < len(traj.Points); i++ {
		prev, cur := traj.Points[i-1], traj.Points[i]
		h := cur.Time - prev.Time
		require.Greater(t, h, 0.0)

		st.Time = cur.Time
		st.TimeStep = h
		st.Coeff = 1 / h
		for j := 0; j < size; j++ {
			st.X[j+1] = cur.State[j]
			st.Xdot[j+1] = (cur.State[j] - prev.State[j]) / h
		}

		res, err := ckt.Residual(st)
		require.NoError(t, err)
		for n := 1; n <= ckt.NumNodes(); n++ {
			assert.InDelta(t, 0.0, res[n], 1e-7,
				"node balance violated at t=%g row %d", cur.Time, n)
		}
	}
}

func finalError(t *testing.T, method solver.Method, step float64) float64 {
	t.Helper()
	ckt := rcCircuit(t)
	tran := solver.NewTransient(solver.Config{
		Stop:         2e-3,
		Step:         step,
		Method:       method,
		InitialState: make([]float64, ckt.Size()),
	})
	traj, err := tran.Run(context.Background(), ckt)
	require.NoError(t, err)

	out := traj.Column("P(out)")
	exact := 1 - math.Exp(-2)
	return math.Abs(out[len(out)-1] - exact)
}

// Halving the step should halve the BDF1 error and quarter the BDF2 one.
func TestConvergenceOrder(t *testing.T) {
	e1 := finalError(t, solver.BDF1, 1e-4)
	e2 := finalError(t, solver.BDF1, 5e-5)
	ratio := e1 / e2
	assert.Greater(t, ratio, 1.7)
	assert.Less(t, ratio, 2.4)

	e1 = finalError(t, solver.BDF2, 1e-4)
	e2 = finalError(t, solver.BDF2, 5e-5)
	ratio = e1 / e2
	assert.Greater(t, ratio, 3.0)
	assert.Less(t, ratio, 5.2)

	// BDF2 beats BDF1 outright at equal step
	assert.Less(t, finalError(t, solver.BDF2, 1e-4), finalError(t, solver.BDF1, 1e-4))
}

func TestDiodeRamp(t *testing.T) {
	ckt := diodeCircuit(t, "t")

	tran := solver.NewTransient(solver.Config{
		Stop: 1.0,
		Step: 0.05,
	})
	traj, err := tran.Run(context.Background(), ckt)
	require.NoError(t, err)

	va := traj.Column("P(a)")
	iq := traj.Column("Q(V1)")
	require.NotNil(t, va)
	require.NotNil(t, iq)

	// monotone within solver tolerance: early samples sit near zero where
	// the Newton residual floor is visible
	for i := 1; i < len(va); i++ {
		assert.GreaterOrEqual(t, va[i], va[i-1]-1e-9, "diode voltage must track the ramp")
		assert.LessOrEqual(t, iq[i], iq[i-1]+1e-9, "delivered current must grow with the ramp")
	}
	// forward drop settles in the usual range, current through R follows
	assert.Greater(t, va[len(va)-1], 0.4)
	assert.InDelta(t, (1.0-va[len(va)-1])/100, -iq[len(iq)-1], 1e-6)
}

func TestDeterministicRuns(t *testing.T) {
	run := func() *solver.Trajectory {
		ckt := rcCircuit(t)
		tran := solver.NewTransient(solver.Config{
			Stop:         1e-3,
			Step:         2e-5,
			InitialState: make([]float64, ckt.Size()),
		})
		traj, err := tran.Run(context.Background(), ckt)
		require.NoError(t, err)
		return traj
	}

	a, b := run(), run()
	require.Equal(t, a.Labels, b.Labels)
	require.Equal(t, len(a.Points), len(b.Points))
	for i := range a.Points {
		assert.Equal(t, a.Points[i], b.Points[i], "runs diverged at sample %d", i)
	}
}

func TestWatchCallback(t *testing.T) {
	ckt := rcCircuit(t)

	var seen []solver.Point
	tran := solver.NewTransient(solver.Config{
		Stop:         1e-4,
		Step:         2e-5,
		InitialState: make([]float64, ckt.Size()),
		Watch:        func(p solver.Point) { seen = append(seen, p) },
	})
	traj, err := tran.Run(context.Background(), ckt)
	require.NoError(t, err)

	require.Equal(t, len(traj.Points), len(seen))
	for i := range seen {
		assert.Equal(t, traj.Points[i], seen[i])
	}
}

func TestCancellation(t *testing.T) {
	ckt := rcCircuit(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tran := solver.NewTransient(solver.Config{
		Stop:         1e-3,
		Step:         2e-5,
		InitialState: make([]float64, ckt.Size()),
	})
	traj, err := tran.Run(ctx, ckt)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, traj)
	// cancellation lands between steps; whatever was recorded stays valid
	assert.GreaterOrEqual(t, len(traj.Points), 1)
}

func TestSolverFailureAfterRetries(t *testing.T) {
	ckt := diodeCircuit(t, "1")

	// two Newton iterations can never resolve the exponential from a cold
	// start, and halving the step changes nothing in a static circuit
	tran := solver.NewTransient(solver.Config{
		Stop:                1e-3,
		Step:                1e-3,
		MaxNewtonIterations: 2,
		InitialState:        make([]float64, ckt.Size()),
	})
	_, err := tran.Run(context.Background(), ckt)

	var sf *solver.SolverFailure
	require.ErrorAs(t, err, &sf)
	assert.Greater(t, sf.Time, 0.0)
	assert.Greater(t, sf.TimeStep, 0.0)
	assert.Equal(t, 10, sf.Retries)

	var ce *solver.ConvergenceError
	assert.ErrorAs(t, err, &ce)
}

func TestBadTimeRange(t *testing.T) {
	ckt := rcCircuit(t)

	_, err := solver.NewTransient(solver.Config{Stop: 1e-3}).Run(context.Background(), ckt)
	require.Error(t, err)

	_, err = solver.NewTransient(solver.Config{Start: 1, Stop: 0.5, Step: 0.1}).Run(context.Background(), ckt)
	require.Error(t, err)
}

func TestInitialStateLengthChecked(t *testing.T) {
	ckt := rcCircuit(t)

	tran := solver.NewTransient(solver.Config{
		Stop:         1e-3,
		Step:         2e-5,
		InitialState: []float64{0},
	})
	_, err := tran.Run(context.Background(), ckt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial state")
}

func TestTrajectoryColumnUnknownLabel(t *testing.T) {
	tr := &solver.Trajectory{Labels: []string{"P(a)"}}
	assert.Nil(t, tr.Column("P(zz)"))
}
