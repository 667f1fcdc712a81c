// Package control provides controllers that turn pose feedback into velocity commands.
//
// Controllers implement OnPoseUpdate, called once per received pose:
//
//   - [Polygon]: drives the agent around a regular polygon (straight, pivot, repeat, stop)
//   - [None]: idle controller that always commands a stop
//
// # Usage
//
//	ctrl, err := control.NewPolygon(control.DefaultPolygonConfig(), logger)
//	if err != nil {
//		return err // configuration rejected, do not start
//	}
//	cmd := ctrl.OnPoseUpdate(pose)
//
// The polygon state machine itself lives in [Step], a transition function over
// an explicit [PolygonState]; [Polygon] only owns that state and logs.
package control
