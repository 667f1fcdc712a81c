package automation

import (
	"context"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/polydrive/internal/config"
	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/experiment"
	"github.com/san-kum/polydrive/internal/sim"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset and overlays whatever the config node sets.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
}

type StepResult struct {
	Name   string
	Config *config.Config
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading scenario")
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, errors.Wrap(err, "parsing scenario")
	}
	if len(scenario.Steps) == 0 {
		return nil, errors.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve builds the effective config of a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = "triangle"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, errors.Errorf("unknown preset: %s", preset)
	}
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, errors.Wrap(err, "decoding step config")
		}
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failing one.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger *zap.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = step.Preset
		}
		logger.Info("running scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", name))

		cfg, err := step.Resolve()
		if err != nil {
			return results, errors.Wrapf(err, "step %d", i+1)
		}

		exp := experiment.New(cfg, logger.Named(name))
		if err := exp.Setup(registry); err != nil {
			return results, errors.Wrapf(err, "step %d setup", i+1)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, errors.Wrapf(err, "step %d run", i+1)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Result: result})
	}
	return results, nil
}

// MonteCarloConfig perturbs the start pose of a base config uniformly.
type MonteCarloConfig struct {
	Base *config.Config
	// Position and Heading are the half-widths of the perturbation.
	Position  float64
	Heading   float64
	NumTrials int
	Seed      int64
}

type MonteCarloResult struct {
	TrialID      int
	Start        dynamo.Pose
	Final        dynamo.Pose
	ClosureError float64
	Finished     bool
}

// RunMonteCarlo checks how the polygon holds up from scattered start poses.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, registry *experiment.Registry, logger *zap.Logger) ([]MonteCarloResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]MonteCarloResult, 0, mc.NumTrials)
	rng := rand.New(rand.NewSource(mc.Seed))
	base := mc.Base.StartPose()

	for trial := 0; trial < mc.NumTrials; trial++ {
		start := dynamo.Pose{
			X:     base.X + (2*rng.Float64()-1)*mc.Position,
			Y:     base.Y + (2*rng.Float64()-1)*mc.Position,
			Theta: dynamo.WrapAngle(base.Theta + (2*rng.Float64()-1)*mc.Heading),
		}
		cfg := *mc.Base
		cfg.InitPose = config.PoseConfig{X: start.X, Y: start.Y, Theta: start.Theta}

		exp := experiment.New(&cfg, zap.NewNop())
		if err := exp.Setup(registry); err != nil {
			return results, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, errors.Wrapf(err, "trial %d", trial)
		}

		final := start
		if len(result.Samples) > 0 {
			final = result.Samples[len(result.Samples)-1].Pose
		}
		results = append(results, MonteCarloResult{
			TrialID:      trial,
			Start:        start,
			Final:        final,
			ClosureError: result.Metrics["closure_error"],
			Finished:     result.Finished,
		})

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo progress", zap.Int("done", trial+1), zap.Int("of", mc.NumTrials))
		}
	}
	return results, nil
}

// MonteCarloStats summarises finished trials and their mean and worst closure error.
func MonteCarloStats(results []MonteCarloResult) (finished, unfinished int, meanClosure, worstClosure float64) {
	sum := 0.0
	for _, r := range results {
		if !r.Finished {
			unfinished++
			continue
		}
		finished++
		sum += r.ClosureError
		if r.ClosureError > worstClosure {
			worstClosure = r.ClosureError
		}
	}
	if finished > 0 {
		meanClosure = sum / float64(finished)
	}
	return
}
