package sim

import (
	"github.com/san-kum/polydrive/internal/control"
	"github.com/san-kum/polydrive/internal/dynamo"
)

// Controller consumes one pose and returns the command for it.
type Controller interface {
	OnPoseUpdate(pose dynamo.Pose) dynamo.Twist
}

// Terminal is implemented by controllers that can finish a run.
type Terminal interface {
	Done() bool
}

// Progress is implemented by controllers that expose their state machine.
type Progress interface {
	LastDecision() control.Decision
	State() control.PolygonState
}

// Resetter is implemented by controllers that can restart a run.
type Resetter interface {
	Reset()
}

type Metric interface {
	Name() string
	Observe(p dynamo.Pose, u dynamo.Twist, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

// Sample is one pose update and the command issued for it.
type Sample struct {
	Tick      int
	Time      float64
	Pose      dynamo.Pose
	Cmd       dynamo.Twist
	Decision  control.Decision
	TurnCount int
}

type Config struct {
	Dt       float64
	Duration float64
	// Jitter spreads tick intervals uniformly over dt*(1±Jitter).
	Jitter float64
	// SettleTicks is how many ticks to keep running after the controller finishes.
	SettleTicks   int
	Seed          int64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.016,
		Duration:      60.0,
		SettleTicks:   10,
		Seed:          1,
		ValidateState: true,
	}
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
	// Finished reports that the controller reached its terminal state.
	Finished bool
	Errors   []error
}

// Poses returns the observed pose of every sample.
func (r *Result) Poses() []dynamo.Pose {
	out := make([]dynamo.Pose, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Pose
	}
	return out
}
