package sim

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/polydrive/internal/control"
	"github.com/san-kum/polydrive/internal/dynamo"
)

// Session steps one closed-loop run tick by tick. Not safe for concurrent use.
type Session struct {
	dyn        dynamo.PoseSystem
	integrator dynamo.Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
	cfg        Config

	x0      dynamo.State
	x       dynamo.State
	t       float64
	tick    int
	settled int
	rng     *rand.Rand
}

func NewSession(dyn dynamo.PoseSystem, integrator dynamo.Integrator, controller Controller, start dynamo.Pose, cfg Config) (*Session, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if !start.IsValid() {
		return nil, dynamo.ErrInvalidPose
	}
	x0 := dyn.FromPose(start)
	s := &Session{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		cfg:        cfg,
		x0:         x0,
	}
	s.Reset()
	return s, nil
}

func (s *Session) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Session) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Step feeds the current pose to the controller and applies its command for one interval.
func (s *Session) Step() (Sample, error) {
	pose := s.dyn.Pose(s.x)
	cmd := s.controller.OnPoseUpdate(pose)

	sample := Sample{Tick: s.tick, Time: s.t, Pose: pose, Cmd: cmd}
	if p, ok := s.controller.(Progress); ok {
		sample.Decision = p.LastDecision()
		sample.TurnCount = p.State().TurnCount
	} else {
		sample.Decision = control.Decision{Cmd: cmd}
	}

	for _, m := range s.metrics {
		m.Observe(pose, cmd, s.t)
	}
	for _, obs := range s.observers {
		obs.OnStep(sample)
	}

	dt := s.interval()
	next := s.integrator.Step(s.dyn, s.x, dynamo.TwistControl(cmd), s.t, dt)
	if n, ok := s.dyn.(dynamo.Normalizer); ok {
		next = n.Normalize(next)
	}
	if s.cfg.ValidateState && !next.IsValid() {
		return sample, &dynamo.TickError{Tick: s.tick, Time: s.t, Pose: pose, Wrapped: dynamo.ErrInvalidPose}
	}

	if s.Done() {
		s.settled++
	}
	s.x = next
	s.t += dt
	s.tick++
	return sample, nil
}

func (s *Session) interval() float64 {
	if s.cfg.Jitter == 0 {
		return s.cfg.Dt
	}
	return s.cfg.Dt * (1 + s.cfg.Jitter*(2*s.rng.Float64()-1))
}

// Done reports whether the controller has reached its terminal state.
func (s *Session) Done() bool {
	if t, ok := s.controller.(Terminal); ok {
		return t.Done()
	}
	return false
}

// Finished reports whether the run should stop.
func (s *Session) Finished() bool {
	if s.t >= s.cfg.Duration {
		return true
	}
	return s.Done() && s.settled >= s.cfg.SettleTicks
}

func (s *Session) Pose() dynamo.Pose { return s.dyn.Pose(s.x) }
func (s *Session) Time() float64     { return s.t }
func (s *Session) Ticks() int        { return s.tick }
func (s *Session) Config() Config    { return s.cfg }

// Metrics returns the current value of every metric.
func (s *Session) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Reset returns to the start pose and restarts the controller when it supports it.
func (s *Session) Reset() {
	s.x = s.x0.Clone()
	s.t = 0
	s.tick = 0
	s.settled = 0
	s.rng = rand.New(rand.NewSource(s.cfg.Seed))
	for _, m := range s.metrics {
		m.Reset()
	}
	if r, ok := s.controller.(Resetter); ok {
		r.Reset()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return fmt.Errorf("jitter must be in [0, 1), got %f", cfg.Jitter)
	}
	if cfg.SettleTicks < 0 {
		return fmt.Errorf("settle ticks must not be negative, got %d", cfg.SettleTicks)
	}
	return nil
}
