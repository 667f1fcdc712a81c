package control_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/polydrive/internal/control"
	"github.com/san-kum/polydrive/internal/dynamo"
)

// drive closes the loop with an ideal unicycle until the controller stops or maxTicks pass.
func drive(p *control.Polygon, start dynamo.Pose, dt float64, maxTicks int) ([]dynamo.Pose, []dynamo.Twist) {
	pose := start
	poses := []dynamo.Pose{}
	cmds := []dynamo.Twist{}
	for i := 0; i < maxTicks && !p.Done(); i++ {
		cmd := p.OnPoseUpdate(pose)
		poses = append(poses, pose)
		cmds = append(cmds, cmd)
		pose = dynamo.Pose{
			X:     pose.X + cmd.Linear*math.Cos(pose.Theta)*dt,
			Y:     pose.Y + cmd.Linear*math.Sin(pose.Theta)*dt,
			Theta: dynamo.WrapAngle(pose.Theta + cmd.Angular*dt),
		}
	}
	return poses, cmds
}

var _ = Describe("PolygonConfig", func() {
	It("uses the documented defaults", func() {
		cfg := control.DefaultPolygonConfig()
		Expect(cfg.NumOfSides).To(Equal(3))
		Expect(cfg.LengthOfSide).To(Equal(1.0))
		Expect(cfg.TurnDirectionTh).To(Equal(0.01))
		Expect(cfg.Velocity).To(Equal(0.5))
		Expect(cfg.Yawrate).To(Equal(0.3))
		Expect(cfg.Validate()).To(Succeed())
	})

	DescribeTable("rejects configurations the controller cannot run",
		func(mutate func(*control.PolygonConfig)) {
			cfg := control.DefaultPolygonConfig()
			mutate(&cfg)
			Expect(cfg.Validate()).To(MatchError(dynamo.ErrInvalidConfig))

			p, err := control.NewPolygon(cfg, zap.NewNop())
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(p).To(BeNil())
		},
		Entry("two sides", func(c *control.PolygonConfig) { c.NumOfSides = 2 }),
		Entry("zero sides", func(c *control.PolygonConfig) { c.NumOfSides = 0 }),
		Entry("zero side length", func(c *control.PolygonConfig) { c.LengthOfSide = 0 }),
		Entry("negative side length", func(c *control.PolygonConfig) { c.LengthOfSide = -1 }),
		Entry("NaN side length", func(c *control.PolygonConfig) { c.LengthOfSide = math.NaN() }),
		Entry("zero threshold", func(c *control.PolygonConfig) { c.TurnDirectionTh = 0 }),
		Entry("negative threshold", func(c *control.PolygonConfig) { c.TurnDirectionTh = -0.1 }),
	)
})

var _ = Describe("TargetDirection", func() {
	It("depends only on the turn count", func() {
		cfg := control.DefaultPolygonConfig()
		Expect(control.TargetDirection(cfg, 0)).To(BeNumerically("~", 2*math.Pi/3, 1e-12))
		Expect(control.TargetDirection(cfg, 1)).To(BeNumerically("~", -2*math.Pi/3, 1e-12))
	})

	It("keeps exactly π and only wraps values above it", func() {
		cfg := control.DefaultPolygonConfig()
		cfg.NumOfSides = 4
		Expect(control.TargetDirection(cfg, 0)).To(BeNumerically("~", math.Pi/2, 1e-12))
		Expect(control.TargetDirection(cfg, 1)).To(Equal(math.Pi))
		Expect(control.TargetDirection(cfg, 2)).To(BeNumerically("~", -math.Pi/2, 1e-12))
		Expect(control.TargetDirection(cfg, 3)).To(BeNumerically("~", 0, 1e-12))
	})
})

var _ = Describe("Step", func() {
	var (
		cfg   control.PolygonConfig
		state control.PolygonState
	)

	BeforeEach(func() {
		cfg = control.DefaultPolygonConfig()
		state = control.PolygonState{}
	})

	It("reproduces the triangle example stream", func() {
		stream := []dynamo.Pose{{X: 0, Y: 0, Theta: 0}, {X: 0.5, Y: 0, Theta: 0}, {X: 1.0, Y: 0, Theta: 0}}
		expected := []dynamo.Twist{{Linear: 0.5}, {Linear: 0.5}, {Angular: 0.3}}

		for i, pose := range stream {
			d := control.Step(cfg, &state, pose)
			Expect(d.Cmd).To(Equal(expected[i]), "tick %d", i)
		}
		Expect(state.TurnCount).To(Equal(0))
		ref, ok := state.Reference.Get()
		Expect(ok).To(BeTrue())
		Expect(ref).To(Equal(stream[0]))
	})

	It("captures the reference on the first pose and measures zero distance", func() {
		pose := dynamo.Pose{X: 3, Y: 4, Theta: 1}
		d := control.Step(cfg, &state, pose)
		Expect(d.Recaptured).To(BeTrue())
		Expect(d.Distance).To(BeZero())
		Expect(d.Phase).To(Equal(control.PhaseStraight))
		Expect(state.Reference.IsSet()).To(BeTrue())
		latest, ok := state.Latest.Get()
		Expect(ok).To(BeTrue())
		Expect(latest).To(Equal(pose))
	})

	It("keeps the corner open while the heading error exceeds the threshold", func() {
		control.Step(cfg, &state, dynamo.Pose{})
		for i := 0; i < 5; i++ {
			d := control.Step(cfg, &state, dynamo.Pose{X: 1.2, Theta: 0.1 * float64(i)})
			Expect(d.Phase).To(Equal(control.PhaseTurn))
			Expect(d.Cmd).To(Equal(dynamo.Twist{Angular: cfg.Yawrate}))
			Expect(d.HeadingError).To(BeNumerically("~", 2*math.Pi/3-0.1*float64(i), 1e-12))
		}
		Expect(state.TurnCount).To(Equal(0))
		Expect(state.Reference.IsSet()).To(BeTrue())
	})

	It("completes a corner once the heading is within the threshold", func() {
		control.Step(cfg, &state, dynamo.Pose{})
		corner := dynamo.Pose{X: 1, Theta: 2*math.Pi/3 + 0.005}
		d := control.Step(cfg, &state, corner)
		Expect(d.Phase).To(Equal(control.PhaseCornerDone))
		Expect(d.Cmd).To(Equal(dynamo.Stop))
		Expect(state.TurnCount).To(Equal(1))
		Expect(state.Reference.IsSet()).To(BeFalse())

		d = control.Step(cfg, &state, corner)
		Expect(d.Recaptured).To(BeTrue())
		Expect(d.Distance).To(BeZero())
		Expect(d.Cmd).To(Equal(dynamo.Twist{Linear: cfg.Velocity}))
		ref, _ := state.Reference.Get()
		Expect(ref).To(Equal(corner))
	})

	It("exempts the last corner from turning", func() {
		state.TurnCount = cfg.NumOfSides - 1
		state.Reference = control.Set(dynamo.Pose{})
		d := control.Step(cfg, &state, dynamo.Pose{X: 1, Theta: 1.5})
		Expect(d.HeadingError).To(BeNumerically("~", 1.5, 1e-12))
		Expect(d.Phase).To(Equal(control.PhaseCornerDone))
		Expect(d.Cmd).To(Equal(dynamo.Stop))
		Expect(state.TurnCount).To(Equal(cfg.NumOfSides))
	})

	It("stays terminal for every later pose", func() {
		state.TurnCount = cfg.NumOfSides
		for _, pose := range []dynamo.Pose{{}, {X: 10, Y: -4, Theta: 3}, {X: 0.1}} {
			d := control.Step(cfg, &state, pose)
			Expect(d.Phase).To(Equal(control.PhaseDone))
			Expect(d.Cmd).To(Equal(dynamo.Stop))
			Expect(state.TurnCount).To(Equal(cfg.NumOfSides))
			latest, _ := state.Latest.Get()
			Expect(latest).To(Equal(pose))
		}
	})
})

var _ = Describe("Polygon", func() {
	It("drives a closed triangle and stops", func() {
		p, err := control.NewPolygon(control.DefaultPolygonConfig(), zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		start := dynamo.Pose{X: 5.5, Y: 5.5}
		poses, cmds := drive(p, start, 0.01, 100000)
		Expect(p.Done()).To(BeTrue())

		last := poses[len(poses)-1]
		Expect(dynamo.Distance(start, last)).To(BeNumerically("<", 0.1))

		for _, cmd := range cmds {
			Expect(cmd.Linear != 0 && cmd.Angular != 0).To(BeFalse())
		}

		for i := 0; i < 20; i++ {
			Expect(p.OnPoseUpdate(last)).To(Equal(dynamo.Stop))
		}
		Expect(p.State().TurnCount).To(Equal(3))
	})

	It("advances the turn count one corner at a time", func() {
		cfg := control.DefaultPolygonConfig()
		cfg.NumOfSides = 5
		p, err := control.NewPolygon(cfg, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		pose := dynamo.Pose{}
		prev := 0
		for i := 0; i < 100000 && !p.Done(); i++ {
			cmd := p.OnPoseUpdate(pose)
			tc := p.State().TurnCount
			Expect(tc - prev).To(BeNumerically(">=", 0))
			Expect(tc - prev).To(BeNumerically("<=", 1))
			Expect(tc).To(BeNumerically("<=", cfg.NumOfSides))
			prev = tc
			pose = dynamo.Pose{
				X:     pose.X + cmd.Linear*math.Cos(pose.Theta)*0.01,
				Y:     pose.Y + cmd.Linear*math.Sin(pose.Theta)*0.01,
				Theta: dynamo.WrapAngle(pose.Theta + cmd.Angular*0.01),
			}
		}
		Expect(prev).To(Equal(cfg.NumOfSides))
	})

	It("logs a recaptured reference", func() {
		core, logs := observer.New(zapcore.InfoLevel)
		p, err := control.NewPolygon(control.DefaultPolygonConfig(), zap.New(core))
		Expect(err).NotTo(HaveOccurred())
		Expect(logs.FilterMessage("polygon controller configured").Len()).To(Equal(1))

		p.OnPoseUpdate(dynamo.Pose{})
		Expect(logs.FilterMessage("reference pose missing, capturing current pose").Len()).To(Equal(1))
		p.OnPoseUpdate(dynamo.Pose{X: 0.1})
		Expect(logs.FilterMessage("reference pose missing, capturing current pose").Len()).To(Equal(1))
	})

	It("resets to a fresh run", func() {
		p, err := control.NewPolygon(control.DefaultPolygonConfig(), nil)
		Expect(err).NotTo(HaveOccurred())
		drive(p, dynamo.Pose{}, 0.01, 100000)
		Expect(p.Done()).To(BeTrue())

		p.Reset()
		Expect(p.Done()).To(BeFalse())
		Expect(p.State().Reference.IsSet()).To(BeFalse())
		Expect(p.OnPoseUpdate(dynamo.Pose{})).To(Equal(dynamo.Twist{Linear: 0.5}))
		Expect(p.LastDecision().Recaptured).To(BeTrue())
	})
})

var _ = Describe("IdealVertices", func() {
	It("closes for a square starting at heading zero", func() {
		cfg := control.DefaultPolygonConfig()
		cfg.NumOfSides = 4
		cfg.LengthOfSide = 2
		v := control.IdealVertices(cfg, dynamo.Pose{X: 1, Y: 1})
		Expect(v).To(HaveLen(5))
		Expect(v[1].X).To(BeNumerically("~", 3, 1e-9))
		Expect(v[1].Y).To(BeNumerically("~", 1, 1e-9))
		Expect(v[2].X).To(BeNumerically("~", 3, 1e-9))
		Expect(v[2].Y).To(BeNumerically("~", 3, 1e-9))
		Expect(dynamo.Distance(v[0], v[4])).To(BeNumerically("<", 1e-9))
	})
})

var _ = Describe("None", func() {
	It("always stops", func() {
		n := control.NewNone()
		Expect(n.OnPoseUpdate(dynamo.Pose{X: 1})).To(Equal(dynamo.Stop))
		Expect(n.Done()).To(BeTrue())
	})
})

var _ = Describe("Phase", func() {
	It("round-trips through its name", func() {
		for _, ph := range []control.Phase{control.PhaseStraight, control.PhaseTurn, control.PhaseCornerDone, control.PhaseDone} {
			parsed, err := control.ParsePhase(ph.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(ph))
		}
		_, err := control.ParsePhase("spin")
		Expect(err).To(HaveOccurred())
	})
})
