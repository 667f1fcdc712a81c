package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/polydrive/internal/config"
	"github.com/san-kum/polydrive/internal/experiment"
)

var ErrNoTrial = errors.New("optim: no trial finished")

// Param is one axis of the grid.
type Param struct {
	Name   string
	Values []float64
}

// Trial is one grid point and its outcome. Err is set when the point could not run.
type Trial struct {
	Params   map[string]float64
	Value    float64
	Finished bool
	Err      error
}

var setters = map[string]func(*config.Config, float64){
	"length_of_side":    func(c *config.Config, v float64) { c.Polygon.LengthOfSide = v },
	"turn_direction_th": func(c *config.Config, v float64) { c.Polygon.TurnDirectionTh = v },
	"velocity":          func(c *config.Config, v float64) { c.Polygon.Velocity = v },
	"yawrate":           func(c *config.Config, v float64) { c.Polygon.Yawrate = v },
	"dt":                func(c *config.Config, v float64) { c.Sim.Dt = v },
	"jitter":            func(c *config.Config, v float64) { c.Sim.Jitter = v },
}

// ParamNames lists the tunable parameters.
func ParamNames() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseParam reads "name=v1,v2,..".
func ParseParam(s string) (Param, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || list == "" {
		return Param{}, fmt.Errorf("expected name=v1,v2,..., got %q", s)
	}
	var p Param
	p.Name = strings.TrimSpace(name)
	for _, field := range strings.Split(list, ",") {
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(field), "%g", &v); err != nil {
			return Param{}, errors.Wrapf(err, "param %s value %q", p.Name, field)
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

type GridSearch struct {
	params   []Param
	registry *experiment.Registry
	logger   *zap.Logger
}

func NewGridSearch(params []Param, registry *experiment.Registry, logger *zap.Logger) (*GridSearch, error) {
	for _, p := range params {
		if _, ok := setters[p.Name]; !ok {
			return nil, fmt.Errorf("unknown param: %s", p.Name)
		}
		if len(p.Values) == 0 {
			return nil, fmt.Errorf("param %s has no values", p.Name)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridSearch{params: params, registry: registry, logger: logger}, nil
}

// Search runs every grid point from base and returns the finished trial that
// minimises metric, followed by all trials in grid order.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string) (*Trial, []Trial, error) {
	var trials []Trial
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, base, metric, &trials); err != nil {
		return nil, trials, err
	}

	best := -1
	bestVal := math.Inf(1)
	for i, tr := range trials {
		if tr.Err == nil && tr.Finished && tr.Value < bestVal {
			best, bestVal = i, tr.Value
		}
	}
	if best < 0 {
		return nil, trials, ErrNoTrial
	}
	return &trials[best], trials, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64,
	base *config.Config, metric string, trials *[]Trial) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.params) {
		*trials = append(*trials, g.runTrial(ctx, current, base, metric))
		return nil
	}

	p := g.params[depth]
	for _, val := range p.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[p.Name] = val
		if err := g.searchRecursive(ctx, depth+1, next, base, metric, trials); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) runTrial(ctx context.Context, params map[string]float64, base *config.Config, metric string) Trial {
	cfg := *base
	for name, v := range params {
		setters[name](&cfg, v)
	}
	trial := Trial{Params: params}

	exp := experiment.New(&cfg, zap.NewNop())
	if err := exp.Setup(g.registry); err != nil {
		trial.Err = err
		return trial
	}
	result, err := exp.Run(ctx)
	if err != nil {
		trial.Err = err
		return trial
	}

	val, ok := result.Metrics[metric]
	if !ok {
		trial.Err = fmt.Errorf("unknown metric: %s", metric)
		return trial
	}
	trial.Value = val
	trial.Finished = result.Finished
	g.logger.Debug("trial complete",
		zap.Any("params", params),
		zap.String("metric", metric),
		zap.Float64("value", val),
		zap.Bool("finished", result.Finished))
	return trial
}
