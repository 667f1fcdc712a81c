package control

import "github.com/san-kum/polydrive/internal/dynamo"

// None commands a stop on every pose.
type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) OnPoseUpdate(pose dynamo.Pose) dynamo.Twist {
	return dynamo.Stop
}

func (n *None) Done() bool { return true }
