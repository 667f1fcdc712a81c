package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/polydrive/internal/automation"
	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/experiment"
	"github.com/san-kum/polydrive/internal/optim"
	"github.com/san-kum/polydrive/internal/sim"
)

var (
	gridParams []string
	tuneMetric string
	numRuns    int
	mcPosition float64
	mcHeading  float64
)

func batchCommands() []*cobra.Command {
	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search polygon parameters",
		Long:  "grid search polygon parameters, e.g. --grid velocity=0.3,0.5,1 --grid yawrate=0.3,0.6\ntunable: " + strings.Join(optim.ParamNames(), ", "),
		RunE:  runTune,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridParams, "grid", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "closure_error", "metric to minimise")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of drives from yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat the drive from perturbed start poses",
		RunE:  runMonteCarlo,
	}
	addRunFlags(mcCmd)
	mcCmd.Flags().IntVar(&numRuns, "runs", 20, "number of trials")
	mcCmd.Flags().Float64Var(&mcPosition, "spread", 0.5, "start position half-width")
	mcCmd.Flags().Float64Var(&mcHeading, "heading-spread", 0.5, "start heading half-width")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "repeat the drive over consecutive seeds in parallel",
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&numRuns, "runs", 8, "number of seeds")

	return []*cobra.Command{tuneCmd, scenarioCmd, mcCmd, sweepCmd}
}

func runTune(cmd *cobra.Command, args []string) error {
	if len(gridParams) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	params := make([]optim.Param, 0, len(gridParams))
	for _, s := range gridParams {
		p, err := optim.ParseParam(s)
		if err != nil {
			return err
		}
		params = append(params, p)
	}
	grid, err := optim.NewGridSearch(params, experiment.NewRegistry(), logger.Named("tune"))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, trials, err := grid.Search(ctx, cfg, tuneMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMS\tFINISHED\t"+strings.ToUpper(tuneMetric))
	for _, tr := range trials {
		if tr.Err != nil {
			fmt.Fprintf(w, "%s\t-\t%v\n", formatParams(tr.Params), tr.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%v\t%.6f\n", formatParams(tr.Params), tr.Finished, tr.Value)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest: %s (%s=%.6f)\n", formatParams(best.Params), tuneMetric, best.Value)
	return nil
}

func formatParams(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, params[name])
	}
	return strings.Join(parts, " ")
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, err := newLogger(nil)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSIDES\tFINISHED\tPATH\tCLOSURE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%v\t%.4f\t%.4f\n", r.Name, r.Config.Polygon.NumOfSides, r.Result.Finished,
			r.Result.Metrics["path_length"], r.Result.Metrics["closure_error"])
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	mc := &automation.MonteCarloConfig{
		Base:      cfg,
		Position:  mcPosition,
		Heading:   mcHeading,
		NumTrials: numRuns,
		Seed:      cfg.Sim.Seed,
	}
	results, err := automation.RunMonteCarlo(ctx, mc, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	finished, unfinished, mean, worst := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d finished, %d unfinished\n", finished, unfinished)
	fmt.Printf("closure error: mean %.4f, worst %.4f\n", mean, worst)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	if _, err := registry.GetIntegrator(cfg.Integrator); err != nil {
		return err
	}

	ens := sim.NewEnsemble(
		func() dynamo.PoseSystem {
			dyn, _ := registry.GetModel(experiment.Model)
			return dyn
		},
		func() dynamo.Integrator {
			integ, _ := registry.GetIntegrator(cfg.Integrator)
			return integ
		},
		func() (sim.Controller, error) {
			return registry.GetController(cfg.Controller, cfg.Polygon, nil)
		},
		registry.DefaultMetrics,
		numRuns,
		cfg.Sim.Seed,
	)

	ctx, cancel := signalContext()
	defer cancel()

	results, err := ens.Run(ctx, cfg.StartPose(), cfg.SimConfig())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tFINISHED\tPATH\tCLOSURE")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%v\t%.4f\t%.4f\n", cfg.Sim.Seed+int64(i), r.StepsTaken, r.Finished,
			r.Metrics["path_length"], r.Metrics["closure_error"])
	}
	return w.Flush()
}
