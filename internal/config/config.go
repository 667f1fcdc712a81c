package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/polydrive/internal/control"
	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/sim"
)

const (
	DefaultController  = "polygon"
	DefaultIntegrator  = "rk4"
	DefaultDt          = 0.016
	DefaultDuration    = 60.0
	DefaultSettleTicks = 10
	DefaultSeed        = 1
	// turtlesim spawns its first turtle in the middle of an 11x11 window.
	DefaultSpawn     = 5.544445
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

type Config struct {
	Controller string                `yaml:"controller"`
	Integrator string                `yaml:"integrator"`
	Polygon    control.PolygonConfig `yaml:"polygon"`
	Sim        SimConfig             `yaml:"sim"`
	InitPose   PoseConfig            `yaml:"init_pose"`
	Log        LogConfig             `yaml:"log"`
}

type SimConfig struct {
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	Jitter      float64 `yaml:"jitter"`
	SettleTicks int     `yaml:"settle_ticks"`
	Seed        int64   `yaml:"seed"`
}

type PoseConfig struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Theta float64 `yaml:"theta"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Controller: DefaultController,
		Integrator: DefaultIntegrator,
		Polygon:    control.DefaultPolygonConfig(),
		Sim: SimConfig{
			Dt:          DefaultDt,
			Duration:    DefaultDuration,
			SettleTicks: DefaultSettleTicks,
			Seed:        DefaultSeed,
		},
		InitPose: PoseConfig{X: DefaultSpawn, Y: DefaultSpawn},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file keep their default.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file on top of base, which it modifies and returns.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}
	return data, nil
}

// Validate checks everything a run needs before it starts.
func (c *Config) Validate() error {
	if c.Controller == "" {
		return errors.Wrap(dynamo.ErrInvalidConfig, "controller must be set")
	}
	if c.Integrator == "" {
		return errors.Wrap(dynamo.ErrInvalidConfig, "integrator must be set")
	}
	if err := c.Polygon.Validate(); err != nil {
		return err
	}
	if c.Sim.Dt <= 0 {
		return errors.Wrapf(dynamo.ErrInvalidConfig, "sim.dt must be positive, got %f", c.Sim.Dt)
	}
	if c.Sim.Duration <= 0 {
		return errors.Wrapf(dynamo.ErrInvalidConfig, "sim.duration must be positive, got %f", c.Sim.Duration)
	}
	if c.Sim.Jitter < 0 || c.Sim.Jitter >= 1 {
		return errors.Wrapf(dynamo.ErrInvalidConfig, "sim.jitter must be in [0, 1), got %f", c.Sim.Jitter)
	}
	if c.Sim.SettleTicks < 0 {
		return errors.Wrapf(dynamo.ErrInvalidConfig, "sim.settle_ticks must not be negative, got %d", c.Sim.SettleTicks)
	}
	if !c.StartPose().IsValid() {
		return errors.Wrap(dynamo.ErrInvalidPose, "init_pose")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Wrapf(dynamo.ErrInvalidConfig, "log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:            c.Sim.Dt,
		Duration:      c.Sim.Duration,
		Jitter:        c.Sim.Jitter,
		SettleTicks:   c.Sim.SettleTicks,
		Seed:          c.Sim.Seed,
		ValidateState: true,
	}
}

func (c *Config) StartPose() dynamo.Pose {
	return dynamo.Pose{X: c.InitPose.X, Y: c.InitPose.Y, Theta: c.InitPose.Theta}
}
