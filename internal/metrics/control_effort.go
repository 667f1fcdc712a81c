package metrics

import (
	"math"

	"github.com/san-kum/polydrive/internal/dynamo"
)

type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(p dynamo.Pose, u dynamo.Twist, t float64) {
	c.sum += math.Abs(u.Linear) + math.Abs(u.Angular)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// TurningRatio is the fraction of ticks spent pivoting.
type TurningRatio struct {
	turning int
	samples int
}

func NewTurningRatio() *TurningRatio {
	return &TurningRatio{}
}

func (r *TurningRatio) Name() string { return "turning_ratio" }

func (r *TurningRatio) Observe(p dynamo.Pose, u dynamo.Twist, t float64) {
	if u.Angular != 0 {
		r.turning++
	}
	r.samples++
}

func (r *TurningRatio) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return float64(r.turning) / float64(r.samples)
}

func (r *TurningRatio) Reset() {
	r.turning = 0
	r.samples = 0
}
