package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/maximerenault/LUPA/pkg/circuit"
	"github.com/maximerenault/LUPA/pkg/netlist"
	"github.com/maximerenault/LUPA/pkg/solver"
)

var (
	flagStart float64
	flagStop  float64
	flagStep  float64
	flagBDF1  bool
	flagPlot  string
	flagOut   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lupa",
		Short: "Transient solver for lumped-parameter networks",
	}

	runCmd := &cobra.Command{
		Use:   "run [circuit.yaml]",
		Short: "Run a transient simulation of a circuit description",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&flagStart, "start", 0, "start time (s)")
	runCmd.Flags().Float64Var(&flagStop, "stop", 1, "stop time (s)")
	runCmd.Flags().Float64Var(&flagStep, "step", 1e-3, "nominal step size (s)")
	runCmd.Flags().BoolVar(&flagBDF1, "bdf1", false, "force first-order integration")
	runCmd.Flags().StringVar(&flagPlot, "plot", "", "plot one column, e.g. P(out)")
	runCmd.Flags().StringVar(&flagOut, "out", "", "write the trajectory to a file instead of stdout")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	desc, err := netlist.Parse(data)
	if err != nil {
		return err
	}

	ckt, err := circuit.New(desc)
	if err != nil {
		return err
	}
	defer ckt.Destroy()

	method := solver.BDF2
	if flagBDF1 {
		method = solver.BDF1
	}

	tran := solver.NewTransient(solver.Config{
		Start:  flagStart,
		Stop:   flagStop,
		Step:   flagStep,
		Method: method,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	traj, err := tran.Run(ctx, ckt)
	if err != nil {
		return err
	}

	if flagPlot != "" {
		col := traj.Column(flagPlot)
		if col == nil {
			return fmt.Errorf("unknown column %q, have: %s", flagPlot, strings.Join(traj.Labels, " "))
		}
		fmt.Println(asciigraph.Plot(col,
			asciigraph.Height(20),
			asciigraph.Caption(fmt.Sprintf("%s over [%g, %g] s", flagPlot, flagStart, flagStop))))
		return nil
	}

	out := os.Stdout
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	writeTrajectory(out, traj)
	return nil
}

// writeTrajectory prints the full solution as CSV with a header row.
func writeTrajectory(out *os.File, traj *solver.Trajectory) {
	fmt.Fprintf(out, "t,%s\n", strings.Join(traj.Labels, ","))
	for _, p := range traj.Points {
		fmt.Fprintf(out, "%.11g", p.Time)
		for _, v := range p.State {
			fmt.Fprintf(out, ",%.11g", v)
		}
		fmt.Fprintln(out)
	}
}
