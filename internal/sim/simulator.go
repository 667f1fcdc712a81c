package sim

import (
	"context"

	"github.com/san-kum/polydrive/internal/dynamo"
)

type Simulator struct {
	dyn        dynamo.PoseSystem
	integrator dynamo.Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

func New(dyn dynamo.PoseSystem, integrator dynamo.Integrator, controller Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Session builds a stepwise session with the simulator's metrics and observers attached.
func (s *Simulator) Session(start dynamo.Pose, cfg Config) (*Session, error) {
	sess, err := NewSession(s.dyn, s.integrator, s.controller, start, cfg)
	if err != nil {
		return nil, err
	}
	for _, m := range s.metrics {
		sess.AddMetric(m)
	}
	for _, o := range s.observers {
		sess.AddObserver(o)
	}
	sess.Reset()
	return sess, nil
}

// Run drives the closed loop until the duration elapses or the controller
// finishes and has settled.
func (s *Simulator) Run(ctx context.Context, start dynamo.Pose, cfg Config) (*Result, error) {
	sess, err := s.Session(start, cfg)
	if err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Samples: make([]Sample, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for !sess.Finished() {
		select {
		case <-ctx.Done():
			result.Metrics = sess.Metrics()
			return result, ctx.Err()
		default:
		}

		sample, err := sess.Step()
		result.Samples = append(result.Samples, sample)
		if err != nil {
			result.Errors = append(result.Errors, err)
			break
		}
		result.StepsTaken++
	}

	result.Finished = sess.Done()
	result.Metrics = sess.Metrics()
	return result, nil
}
