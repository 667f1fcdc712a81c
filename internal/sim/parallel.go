package sim

import (
	"context"
	"sync"

	"github.com/san-kum/polydrive/internal/dynamo"
)

// Ensemble repeats a run over consecutive seeds in parallel. Each run gets a
// fresh controller and fresh metrics since both hold per-run state.
type Ensemble struct {
	dyn        func() dynamo.PoseSystem
	integrator func() dynamo.Integrator
	controller func() (Controller, error)
	metrics    func() []Metric
	numRuns    int
	seedStart  int64
}

func NewEnsemble(dyn func() dynamo.PoseSystem, integrator func() dynamo.Integrator, controller func() (Controller, error), metrics func() []Metric, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    metrics,
		numRuns:    numRuns,
		seedStart:  seedStart,
	}
}

func (e *Ensemble) Run(ctx context.Context, start dynamo.Pose, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			ctrl, err := e.controller()
			if err != nil {
				errs[idx] = err
				return
			}

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			s := New(e.dyn(), e.integrator(), ctrl)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}

			results[idx], errs[idx] = s.Run(ctx, start, cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
