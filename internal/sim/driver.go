package sim

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/polydrive/internal/dynamo"
)

// Driver connects a controller to an external pose source and velocity sink.
// Handle is safe to call from multiple goroutines: calls into the controller
// are serialized and every pose yields exactly one command on the sink.
type Driver struct {
	mu         sync.Mutex
	controller Controller
	sink       dynamo.VelocitySink
	logger     *zap.Logger
	handled    int
}

func NewDriver(controller Controller, sink dynamo.VelocitySink, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{controller: controller, sink: sink, logger: logger}
}

// Handle processes one pose.
func (d *Driver) Handle(ctx context.Context, pose dynamo.Pose) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !pose.IsValid() {
		d.logger.Warn("pose source delivered a non-finite pose", zap.Stringer("pose", pose))
	}

	cmd := d.controller.OnPoseUpdate(pose)
	tick := d.handled
	d.handled++

	if err := d.sink.Send(ctx, cmd); err != nil {
		return errors.Wrapf(err, "forwarding command %v for tick %d", cmd, tick)
	}
	return nil
}

// Run handles poses in arrival order until the channel closes, the context is
// cancelled, or the sink fails.
func (d *Driver) Run(ctx context.Context, poses <-chan dynamo.Pose) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pose, ok := <-poses:
			if !ok {
				d.logger.Debug("pose source closed", zap.Int("handled", d.Handled()))
				return nil
			}
			if err := d.Handle(ctx, pose); err != nil {
				return err
			}
		}
	}
}

// RunSource is Run over a PoseSource.
func (d *Driver) RunSource(ctx context.Context, src dynamo.PoseSource) error {
	return d.Run(ctx, src.Poses())
}

// Handled returns how many poses have been processed.
func (d *Driver) Handled() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handled
}
