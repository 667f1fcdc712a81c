// Package dynamo provides the value types shared by the polygon drive stack.
//
// The package defines what flows between a pose source, a controller and a
// velocity sink:
//
//   - [Pose]: planar position and heading sample
//   - [Twist]: velocity command (forward speed, turn rate)
//   - [PoseSource]: anything that delivers poses in order
//   - [VelocitySink]: anything that accepts one command per pose
//
// # Example
//
//	ctrl, _ := control.NewPolygon(cfg, logger)
//	for pose := range poses {
//		_ = sink.Send(ctx, ctrl.OnPoseUpdate(pose))
//	}
//
// # Thread Safety
//
// Pose and Twist are plain values. Controllers consuming them are NOT
// thread-safe; use sim.Driver to serialize pose delivery from a host.
package dynamo
