package control

import (
	"fmt"

	"github.com/san-kum/polydrive/internal/dynamo"
)

// Reference is either unset or holds a pose.
type Reference struct {
	pose dynamo.Pose
	set  bool
}

// Unset returns the empty reference.
func Unset() Reference { return Reference{} }

// Set returns a reference holding p.
func Set(p dynamo.Pose) Reference { return Reference{pose: p, set: true} }

func (r Reference) Get() (dynamo.Pose, bool) { return r.pose, r.set }

func (r Reference) IsSet() bool { return r.set }

func (r Reference) String() string {
	if !r.set {
		return "unset"
	}
	return r.pose.String()
}

// Phase is what the controller decided on a tick.
type Phase int

const (
	PhaseStraight Phase = iota
	PhaseTurn
	PhaseCornerDone
	PhaseDone
)

var phaseNames = [...]string{"straight", "turn", "corner_done", "done"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase: %s", s)
}

// PolygonState is the mutable part of a polygon run.
type PolygonState struct {
	// TurnCount is the number of corners already completed.
	TurnCount int
	// Reference is the pose the current straight segment started from.
	Reference Reference
	// Latest is the most recent pose observation.
	Latest Reference
}

// Decision is the outcome of one Step.
type Decision struct {
	Cmd   dynamo.Twist
	Phase Phase
	// Distance travelled since the reference pose. Zero in PhaseDone.
	Distance float64
	// Target and HeadingError are only evaluated once the side length is reached.
	Target       float64
	HeadingError float64
	Evaluated    bool
	// Recaptured reports that the reference was missing and was taken from this pose.
	Recaptured bool
}
