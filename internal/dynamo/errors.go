package dynamo

import (
	"fmt"

	"github.com/pkg/errors"
)

// Domain errors for controller and host operations.
var (
	// ErrInvalidConfig indicates a configuration the controller refuses to run with.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrInvalidPose indicates a pose with NaN or Inf components.
	ErrInvalidPose = errors.New("dynamo: invalid pose (NaN or Inf detected)")

	// ErrSinkClosed indicates a velocity sink that no longer accepts commands.
	ErrSinkClosed = errors.New("dynamo: velocity sink closed")
)

// TickError wraps an error with the tick it happened on.
type TickError struct {
	Tick    int
	Time    float64
	Pose    Pose
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
