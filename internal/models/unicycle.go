package models

import (
	"math"

	"github.com/san-kum/polydrive/internal/dynamo"
)

// Unicycle is the kinematic model of a differential-drive base.
// State is (x, y, theta), control is (linear, angular).
type Unicycle struct {
	// MaxLinear and MaxAngular clamp commands when positive.
	MaxLinear  float64
	MaxAngular float64
}

func NewUnicycle() *Unicycle {
	return &Unicycle{}
}

func (u *Unicycle) StateDim() int   { return 3 }
func (u *Unicycle) ControlDim() int { return 2 }

func (u *Unicycle) Derive(x dynamo.State, c dynamo.Control, t float64) dynamo.State {
	theta := x[2]

	v, w := 0.0, 0.0
	if len(c) >= 2 {
		v, w = c[0], c[1]
	} else if len(c) == 1 {
		v = c[0]
	}
	v = clamp(v, u.MaxLinear)
	w = clamp(w, u.MaxAngular)

	sin, cos := math.Sincos(theta)
	return dynamo.State{v * cos, v * sin, w}
}

// Normalize wraps theta into (-π, π], the range pose hosts publish.
func (u *Unicycle) Normalize(x dynamo.State) dynamo.State {
	out := x.Clone()
	out[2] = dynamo.WrapAngle(out[2])
	return out
}

func (u *Unicycle) Pose(x dynamo.State) dynamo.Pose {
	return dynamo.Pose{X: x[0], Y: x[1], Theta: x[2]}
}

func (u *Unicycle) FromPose(p dynamo.Pose) dynamo.State {
	return dynamo.State{p.X, p.Y, dynamo.WrapAngle(p.Theta)}
}

func clamp(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
