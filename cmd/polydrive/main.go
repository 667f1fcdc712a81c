package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/polydrive/internal/config"
	"github.com/san-kum/polydrive/internal/experiment"
	"github.com/san-kum/polydrive/internal/logging"
	"github.com/san-kum/polydrive/internal/storage"
	"github.com/san-kum/polydrive/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string

	controller string
	integrator string
	sides      int
	length     float64
	threshold  float64
	velocity   float64
	yawrate    float64

	dt       float64
	duration float64
	jitter   float64
	settle   int
	seed     int64

	startX     float64
	startY     float64
	startTheta float64

	noSave        bool
	stepsPerFrame int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "polydrive",
		Short:         "drive a mobile robot around a regular polygon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".polydrive", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format (console, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one polygon drive and store it",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "simulate with live terminal visualization",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "speed", 2, "simulation ticks per frame")

	pipeCmd := &cobra.Command{
		Use:   "pipe",
		Short: "read JSON poses on stdin, write JSON velocity commands on stdout",
		RunE:  runPipe,
	}
	addPolygonFlags(pipeCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name).Polygon
				fmt.Printf("  %-10s sides=%d length=%.2f v=%.2f w=%.2f\n", name, p.NumOfSides, p.LengthOfSide, p.Velocity, p.Yawrate)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	addRunFlags(configCmd)

	rootCmd.AddCommand(runCmd, liveCmd, pipeCmd, presetsCmd, configCmd)
	rootCmd.AddCommand(inspectCommands()...)
	rootCmd.AddCommand(batchCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPolygonFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset configuration")
	cmd.Flags().StringVar(&controller, "controller", def.Controller, "controller")
	cmd.Flags().IntVar(&sides, "sides", def.Polygon.NumOfSides, "number of polygon sides")
	cmd.Flags().Float64Var(&length, "length", def.Polygon.LengthOfSide, "side length")
	cmd.Flags().Float64Var(&threshold, "threshold", def.Polygon.TurnDirectionTh, "heading tolerance in radians")
	cmd.Flags().Float64Var(&velocity, "velocity", def.Polygon.Velocity, "forward speed")
	cmd.Flags().Float64Var(&yawrate, "yawrate", def.Polygon.Yawrate, "turning rate")
}

func addRunFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	addPolygonFlags(cmd)
	cmd.Flags().StringVar(&integrator, "integrator", def.Integrator, "integrator")
	cmd.Flags().Float64Var(&dt, "dt", def.Sim.Dt, "nominal tick interval")
	cmd.Flags().Float64Var(&duration, "time", def.Sim.Duration, "maximum simulated time")
	cmd.Flags().Float64Var(&jitter, "jitter", def.Sim.Jitter, "relative tick interval jitter in [0, 1)")
	cmd.Flags().IntVar(&settle, "settle", def.Sim.SettleTicks, "ticks to keep running after the polygon closes")
	cmd.Flags().Int64Var(&seed, "seed", def.Sim.Seed, "random seed")
	cmd.Flags().Float64Var(&startX, "x", def.InitPose.X, "start x")
	cmd.Flags().Float64Var(&startY, "y", def.InitPose.Y, "start y")
	cmd.Flags().Float64Var(&startTheta, "theta", def.InitPose.Theta, "start heading")
}

// resolveConfig layers the preset, the config file and then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("sides") {
		cfg.Polygon.NumOfSides = sides
	}
	if flags.Changed("length") {
		cfg.Polygon.LengthOfSide = length
	}
	if flags.Changed("threshold") {
		cfg.Polygon.TurnDirectionTh = threshold
	}
	if flags.Changed("velocity") {
		cfg.Polygon.Velocity = velocity
	}
	if flags.Changed("yawrate") {
		cfg.Polygon.Yawrate = yawrate
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("jitter") {
		cfg.Sim.Jitter = jitter
	}
	if flags.Changed("settle") {
		cfg.Sim.SettleTicks = settle
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("x") {
		cfg.InitPose.X = startX
	}
	if flags.Changed("y") {
		cfg.InitPose.Y = startY
	}
	if flags.Changed("theta") {
		cfg.InitPose.Theta = startTheta
	}
	if f := cmd.Flag("log-level"); f != nil && f.Changed {
		cfg.Log.Level = logLevel
	}
	if f := cmd.Flag("log-format"); f != nil && f.Changed {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg == nil {
		return logging.NewLogger("polydrive", logLevel, logFormat)
	}
	return logging.NewLogger("polydrive", cfg.Log.Level, cfg.Log.Format)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	began := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(began)

	fmt.Println(viz.Title.Render(fmt.Sprintf("%d-gon, side %.2f", cfg.Polygon.NumOfSides, cfg.Polygon.LengthOfSide)))
	fmt.Println(viz.KV("completed in", elapsed.String()))
	fmt.Println(viz.KV("steps", fmt.Sprintf("%d", result.StepsTaken)))
	fmt.Println(viz.KV("finished", fmt.Sprintf("%v", result.Finished)))
	if n := len(result.Samples); n > 0 {
		fmt.Println(viz.KV("final pose", result.Samples[n-1].Pose.String()))
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Println(viz.KV("run id", runID))
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	// the TUI owns the terminal, so controller logs are dropped
	exp := experiment.New(cfg, zap.NewNop())
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}
	session, err := exp.Session()
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%d-gon %s", cfg.Polygon.NumOfSides, cfg.Controller)
	m := viz.NewLiveModel(session, name, cfg.Polygon, stepsPerFrame)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return err
	}
	return m.Err()
}
