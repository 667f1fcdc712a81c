package experiment

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/polydrive/internal/config"
	"github.com/san-kum/polydrive/internal/sim"
)

// Model is the only simulated agent for now.
const Model = "unicycle"

type Experiment struct {
	cfg       *config.Config
	logger    *zap.Logger
	simulator *sim.Simulator
}

func New(cfg *config.Config, logger *zap.Logger) *Experiment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Experiment{cfg: cfg, logger: logger}
}

// Setup validates the configuration and wires model, integrator, controller and metrics.
func (e *Experiment) Setup(r *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return errors.Wrap(err, "refusing to start")
	}

	dyn, err := r.GetModel(Model)
	if err != nil {
		return err
	}
	integ, err := r.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	ctrl, err := r.GetController(e.cfg.Controller, e.cfg.Polygon, e.logger.Named("controller"))
	if err != nil {
		return errors.Wrap(err, "refusing to start")
	}

	e.simulator = sim.New(dyn, integ, ctrl)
	for _, m := range r.DefaultMetrics() {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.logger.Info("running simulation",
		zap.String("controller", e.cfg.Controller),
		zap.String("integrator", e.cfg.Integrator),
		zap.Stringer("start", e.cfg.StartPose()),
		zap.Float64("dt", e.cfg.Sim.Dt),
		zap.Float64("jitter", e.cfg.Sim.Jitter))

	result, err := e.simulator.Run(ctx, e.cfg.StartPose(), e.cfg.SimConfig())
	if err != nil {
		return result, err
	}
	for _, rerr := range result.Errors {
		e.logger.Warn("simulation error", zap.Error(rerr))
	}
	return result, nil
}

// Session returns a stepwise session for interactive use.
func (e *Experiment) Session() (*sim.Session, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Session(e.cfg.StartPose(), e.cfg.SimConfig())
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Config() *config.Config { return e.cfg }
