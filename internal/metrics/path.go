package metrics

import "github.com/san-kum/polydrive/internal/dynamo"

// PathLength is the distance travelled over the observed poses.
type PathLength struct {
	prev   dynamo.Pose
	seen   bool
	length float64
}

func NewPathLength() *PathLength {
	return &PathLength{}
}

func (m *PathLength) Name() string { return "path_length" }

func (m *PathLength) Observe(p dynamo.Pose, u dynamo.Twist, t float64) {
	if m.seen {
		m.length += dynamo.Distance(m.prev, p)
	}
	m.prev = p
	m.seen = true
}

func (m *PathLength) Value() float64 { return m.length }

func (m *PathLength) Reset() {
	m.seen = false
	m.length = 0
}

// ClosureError is the gap between the first and the latest pose. A completed
// polygon ends where it started.
type ClosureError struct {
	first, last dynamo.Pose
	seen        bool
}

func NewClosureError() *ClosureError {
	return &ClosureError{}
}

func (m *ClosureError) Name() string { return "closure_error" }

func (m *ClosureError) Observe(p dynamo.Pose, u dynamo.Twist, t float64) {
	if !m.seen {
		m.first = p
		m.seen = true
	}
	m.last = p
}

func (m *ClosureError) Value() float64 {
	if !m.seen {
		return 0
	}
	return dynamo.Distance(m.first, m.last)
}

func (m *ClosureError) Reset() {
	m.seen = false
}
