package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/polydrive/internal/control"
	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/integrators"
	"github.com/san-kum/polydrive/internal/models"
	"github.com/san-kum/polydrive/internal/sim"
)

type countMetric struct {
	count int
}

func (c *countMetric) Name() string                                   { return "count" }
func (c *countMetric) Observe(p dynamo.Pose, u dynamo.Twist, t float64) { c.count++ }
func (c *countMetric) Value() float64                                 { return float64(c.count) }
func (c *countMetric) Reset()                                         { c.count = 0 }

type recorder struct {
	samples []sim.Sample
}

func (r *recorder) OnStep(s sim.Sample) { r.samples = append(r.samples, s) }

func newPolygon() *control.Polygon {
	p, err := control.NewPolygon(control.DefaultPolygonConfig(), nil)
	Expect(err).NotTo(HaveOccurred())
	return p
}

var start = dynamo.Pose{X: 5.544445, Y: 5.544445}

var _ = Describe("Simulator", func() {
	var cfg sim.Config

	BeforeEach(func() {
		cfg = sim.DefaultConfig()
	})

	It("drives the triangle to completion and then only stops", func() {
		s := sim.New(models.NewUnicycle(), integrators.NewRK4(), newPolygon())
		metric := &countMetric{}
		rec := &recorder{}
		s.AddMetric(metric)
		s.AddObserver(rec)

		result, err := s.Run(context.Background(), start, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Finished).To(BeTrue())
		Expect(result.Errors).To(BeEmpty())
		Expect(result.StepsTaken).To(Equal(len(result.Samples)))
		Expect(result.Metrics).To(HaveKeyWithValue("count", float64(result.StepsTaken)))
		Expect(rec.samples).To(HaveLen(result.StepsTaken))

		phases := map[control.Phase]int{}
		for _, smp := range result.Samples {
			phases[smp.Decision.Phase]++
			Expect(smp.Cmd.Linear != 0 && smp.Cmd.Angular != 0).To(BeFalse())
		}
		Expect(phases[control.PhaseCornerDone]).To(Equal(3))
		Expect(phases[control.PhaseTurn]).To(BeNumerically(">", 0))
		Expect(phases[control.PhaseDone]).To(Equal(cfg.SettleTicks - 1))

		last := result.Samples[len(result.Samples)-1]
		Expect(last.TurnCount).To(Equal(3))
		Expect(last.Cmd).To(Equal(dynamo.Stop))
		Expect(dynamo.Distance(start, last.Pose)).To(BeNumerically("<", 0.1))
	})

	It("is deterministic for a seed with irregular ticks", func() {
		cfg.Jitter = 0.5
		cfg.Seed = 7

		a, err := sim.New(models.NewUnicycle(), integrators.NewEuler(), newPolygon()).Run(context.Background(), start, cfg)
		Expect(err).NotTo(HaveOccurred())
		b, err := sim.New(models.NewUnicycle(), integrators.NewEuler(), newPolygon()).Run(context.Background(), start, cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Finished).To(BeTrue())
		Expect(a.Samples).To(Equal(b.Samples))
	})

	It("stops at the duration when the polygon is not done", func() {
		cfg.Duration = 1.0
		result, err := sim.New(models.NewUnicycle(), integrators.NewRK4(), newPolygon()).Run(context.Background(), start, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Finished).To(BeFalse())
		last := result.Samples[len(result.Samples)-1]
		Expect(last.Time).To(BeNumerically("<", 1.0))
		Expect(last.Decision.Phase).To(Equal(control.PhaseStraight))
	})

	It("settles an idle controller for the configured ticks", func() {
		cfg.SettleTicks = 3
		result, err := sim.New(models.NewUnicycle(), integrators.NewEuler(), control.NewNone()).Run(context.Background(), start, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.StepsTaken).To(Equal(3))
		Expect(result.Finished).To(BeTrue())
	})

	It("returns the context error when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := sim.New(models.NewUnicycle(), integrators.NewRK4(), newPolygon()).Run(ctx, start, cfg)
		Expect(err).To(MatchError(context.Canceled))
	})

	DescribeTable("rejects invalid configurations",
		func(mutate func(*sim.Config)) {
			mutate(&cfg)
			_, err := sim.New(models.NewUnicycle(), integrators.NewRK4(), newPolygon()).Run(context.Background(), start, cfg)
			Expect(err).To(HaveOccurred())
		},
		Entry("zero dt", func(c *sim.Config) { c.Dt = 0 }),
		Entry("negative duration", func(c *sim.Config) { c.Duration = -1 }),
		Entry("jitter of one", func(c *sim.Config) { c.Jitter = 1 }),
		Entry("negative jitter", func(c *sim.Config) { c.Jitter = -0.1 }),
		Entry("negative settle", func(c *sim.Config) { c.SettleTicks = -1 }),
	)
})

var _ = Describe("Session", func() {
	It("restarts the controller on reset", func() {
		p := newPolygon()
		sess, err := sim.NewSession(models.NewUnicycle(), integrators.NewRK4(), p, start, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		for !sess.Finished() {
			_, err := sess.Step()
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(p.Done()).To(BeTrue())

		sess.Reset()
		Expect(p.Done()).To(BeFalse())
		Expect(sess.Ticks()).To(Equal(0))
		Expect(sess.Pose()).To(Equal(start))

		smp, err := sess.Step()
		Expect(err).NotTo(HaveOccurred())
		Expect(smp.Decision.Recaptured).To(BeTrue())
		Expect(smp.Cmd).To(Equal(dynamo.Twist{Linear: 0.5}))
	})

	It("rejects a non-finite start pose", func() {
		_, err := sim.NewSession(models.NewUnicycle(), integrators.NewRK4(), newPolygon(), dynamo.Pose{X: inf()}, sim.DefaultConfig())
		Expect(err).To(MatchError(dynamo.ErrInvalidPose))
	})
})

var _ = Describe("Ensemble", func() {
	It("finishes every seed", func() {
		cfg := sim.DefaultConfig()
		cfg.Jitter = 0.3

		e := sim.NewEnsemble(
			func() dynamo.PoseSystem { return models.NewUnicycle() },
			func() dynamo.Integrator { return integrators.NewRK4() },
			func() (sim.Controller, error) { return control.NewPolygon(control.DefaultPolygonConfig(), nil) },
			func() []sim.Metric { return []sim.Metric{&countMetric{}} },
			4, 100,
		)
		results, err := e.Run(context.Background(), start, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		for _, r := range results {
			Expect(r.Finished).To(BeTrue())
			Expect(r.Metrics["count"]).To(BeNumerically(">", 0))
		}
	})

	It("surfaces controller construction errors", func() {
		bad := control.DefaultPolygonConfig()
		bad.NumOfSides = 2
		e := sim.NewEnsemble(
			func() dynamo.PoseSystem { return models.NewUnicycle() },
			func() dynamo.Integrator { return integrators.NewRK4() },
			func() (sim.Controller, error) { return control.NewPolygon(bad, nil) },
			nil, 2, 0,
		)
		_, err := e.Run(context.Background(), start, sim.DefaultConfig())
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})
})
