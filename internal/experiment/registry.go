package experiment

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/san-kum/polydrive/internal/control"
	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/integrators"
	"github.com/san-kum/polydrive/internal/metrics"
	"github.com/san-kum/polydrive/internal/models"
	"github.com/san-kum/polydrive/internal/sim"
)

type Registry struct {
	models      map[string]func() dynamo.PoseSystem
	integrators map[string]func() dynamo.Integrator
	controllers map[string]func(control.PolygonConfig, *zap.Logger) (sim.Controller, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() dynamo.PoseSystem),
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]func(control.PolygonConfig, *zap.Logger) (sim.Controller, error)),
	}

	r.models["unicycle"] = func() dynamo.PoseSystem { return models.NewUnicycle() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.controllers["polygon"] = func(cfg control.PolygonConfig, logger *zap.Logger) (sim.Controller, error) {
		return control.NewPolygon(cfg, logger)
	}
	r.controllers["none"] = func(cfg control.PolygonConfig, logger *zap.Logger) (sim.Controller, error) {
		return control.NewNone(), nil
	}

	return r
}

func (r *Registry) GetModel(name string) (dynamo.PoseSystem, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, cfg control.PolygonConfig, logger *zap.Logger) (sim.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(cfg, logger)
}

func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewPathLength(),
		metrics.NewClosureError(),
		metrics.NewControlEffort(),
		metrics.NewTurningRatio(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
