package dynamo

import "math"

// State is the vector a System integrates.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is the input vector applied to a System for one step.
type Control []float64

// TwistControl lays a command out as (linear, angular).
func TwistControl(t Twist) Control {
	return Control{t.Linear, t.Angular}
}

// System is an ODE dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Normalizer is implemented by systems whose state has a canonical form,
// such as a wrapped heading.
type Normalizer interface {
	Normalize(x State) State
}

// Integrator advances a System by dt.
type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// PoseSystem is a System whose state can be observed as a Pose.
type PoseSystem interface {
	System
	Pose(x State) Pose
	FromPose(p Pose) State
}
