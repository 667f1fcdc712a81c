package integrators

import "github.com/san-kum/polydrive/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta step. The control is held
// constant over the step, matching a velocity command applied for one tick.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	half := dt / 2

	k1 := dyn.Derive(x, u, t)
	k2 := dyn.Derive(axpy(x, k1, half), u, t+half)
	k3 := dyn.Derive(axpy(x, k2, half), u, t+half)
	k4 := dyn.Derive(axpy(x, k3, dt), u, t+dt)

	out := make(dynamo.State, len(x))
	for i := range x {
		out[i] = x[i] + dt/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}
