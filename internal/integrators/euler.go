package integrators

import "github.com/san-kum/polydrive/internal/dynamo"

// Euler is the explicit first-order step. Exact for straight-line motion.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	return axpy(x, dyn.Derive(x, u, t), dt)
}

// axpy returns x + a*dx.
func axpy(x, dx dynamo.State, a float64) dynamo.State {
	out := make(dynamo.State, len(x))
	for i := range x {
		out[i] = x[i] + a*dx[i]
	}
	return out
}
