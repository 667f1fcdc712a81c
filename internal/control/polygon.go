package control

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/polydrive/internal/dynamo"
)

const (
	DefaultNumOfSides      = 3
	DefaultLengthOfSide    = 1.0
	DefaultTurnDirectionTh = 0.01
	DefaultVelocity        = 0.5
	DefaultYawrate         = 0.3
)

// PolygonConfig is fixed for the lifetime of a run.
type PolygonConfig struct {
	NumOfSides      int     `yaml:"num_of_sides" json:"num_of_sides"`
	LengthOfSide    float64 `yaml:"length_of_side" json:"length_of_side"`
	TurnDirectionTh float64 `yaml:"turn_direction_th" json:"turn_direction_th"`
	Velocity        float64 `yaml:"velocity" json:"velocity"`
	Yawrate         float64 `yaml:"yawrate" json:"yawrate"`
}

func DefaultPolygonConfig() PolygonConfig {
	return PolygonConfig{
		NumOfSides:      DefaultNumOfSides,
		LengthOfSide:    DefaultLengthOfSide,
		TurnDirectionTh: DefaultTurnDirectionTh,
		Velocity:        DefaultVelocity,
		Yawrate:         DefaultYawrate,
	}
}

func (c PolygonConfig) Validate() error {
	if c.NumOfSides < 3 {
		return errors.Wrapf(dynamo.ErrInvalidConfig, "num_of_sides must be at least 3, got %d", c.NumOfSides)
	}
	if !(c.LengthOfSide > 0) {
		return errors.Wrapf(dynamo.ErrInvalidConfig, "length_of_side must be positive, got %f", c.LengthOfSide)
	}
	if !(c.TurnDirectionTh > 0) {
		return errors.Wrapf(dynamo.ErrInvalidConfig, "turn_direction_th must be positive, got %f", c.TurnDirectionTh)
	}
	return nil
}

// Step advances st by one pose observation and returns the decision for this tick.
// cfg must have passed Validate.
func Step(cfg PolygonConfig, st *PolygonState, pose dynamo.Pose) Decision {
	st.Latest = Set(pose)

	if st.TurnCount >= cfg.NumOfSides {
		return Decision{Cmd: dynamo.Stop, Phase: PhaseDone}
	}

	var d Decision
	ref, ok := st.Reference.Get()
	if !ok {
		ref = pose
		st.Reference = Set(pose)
		d.Recaptured = true
	}

	d.Distance = dynamo.Distance(ref, pose)
	if d.Distance < cfg.LengthOfSide {
		d.Phase = PhaseStraight
		d.Cmd = dynamo.Twist{Linear: cfg.Velocity}
		return d
	}

	d.Evaluated = true
	d.Target = TargetDirection(cfg, st.TurnCount)
	d.HeadingError = math.Abs(d.Target - pose.Theta)

	if d.HeadingError > cfg.TurnDirectionTh && st.TurnCount < cfg.NumOfSides-1 {
		d.Phase = PhaseTurn
		d.Cmd = dynamo.Twist{Angular: cfg.Yawrate}
		return d
	}

	st.TurnCount++
	st.Reference = Unset()
	d.Phase = PhaseCornerDone
	d.Cmd = dynamo.Stop
	return d
}

// Polygon drives the agent around a regular polygon. Not safe for concurrent use.
type Polygon struct {
	cfg    PolygonConfig
	state  PolygonState
	last   Decision
	logger *zap.Logger
}

// NewPolygon validates cfg and returns a controller ready for its first pose.
func NewPolygon(cfg PolygonConfig, logger *zap.Logger) (*Polygon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("polygon controller configured",
		zap.Int("num_of_sides", cfg.NumOfSides),
		zap.Float64("length_of_side", cfg.LengthOfSide),
		zap.Float64("turn_direction_th", cfg.TurnDirectionTh),
		zap.Float64("velocity", cfg.Velocity),
		zap.Float64("yawrate", cfg.Yawrate),
	)

	return &Polygon{cfg: cfg, logger: logger}, nil
}

// OnPoseUpdate consumes one pose and returns the command to forward for it.
func (p *Polygon) OnPoseUpdate(pose dynamo.Pose) dynamo.Twist {
	d := Step(p.cfg, &p.state, pose)
	p.last = d

	if d.Recaptured {
		p.logger.Info("reference pose missing, capturing current pose",
			zap.Stringer("pose", pose),
			zap.Int("turn_count", p.state.TurnCount))
	}

	switch d.Phase {
	case PhaseStraight:
		p.logger.Debug("going straight",
			zap.Float64("remaining", p.cfg.LengthOfSide-d.Distance))
	case PhaseTurn:
		p.logger.Debug("turning in place",
			zap.Float64("target", d.Target),
			zap.Float64("heading_error", d.HeadingError))
	case PhaseCornerDone:
		p.logger.Info("corner complete",
			zap.Int("turn_count", p.state.TurnCount),
			zap.Float64("heading_error", d.HeadingError))
		if p.Done() {
			p.logger.Info("polygon complete, stopping", zap.Stringer("pose", pose))
		}
	}

	return d.Cmd
}

// State returns a copy of the controller state.
func (p *Polygon) State() PolygonState { return p.state }

func (p *Polygon) LastDecision() Decision { return p.last }

func (p *Polygon) Done() bool { return p.state.TurnCount >= p.cfg.NumOfSides }

// Reset starts a new run with the same configuration.
func (p *Polygon) Reset() {
	p.state = PolygonState{}
	p.last = Decision{}
}
