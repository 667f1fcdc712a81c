package dynamo

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Pose is a planar position plus heading in a fixed world frame. Theta is in radians.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

func (p Pose) IsValid() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Theta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", p.X, p.Y, p.Theta)
}

// Distance returns the Euclidean distance between the positions of a and b.
func Distance(a, b Pose) float64 {
	return a.Point().Sub(b.Point()).Norm()
}

// Twist is a velocity command for a differential-drive base.
type Twist struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// Stop is the explicit zero command.
var Stop = Twist{}

func (t Twist) IsZero() bool {
	return t.Linear == 0 && t.Angular == 0
}

func (t Twist) String() string {
	return fmt.Sprintf("{%.4f, %.4f}", t.Linear, t.Angular)
}

// PoseSource delivers poses in the order they were observed.
type PoseSource interface {
	Poses() <-chan Pose
}

// VelocitySink accepts one command per received pose.
type VelocitySink interface {
	Send(ctx context.Context, cmd Twist) error
}
