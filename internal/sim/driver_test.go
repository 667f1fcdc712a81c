package sim_test

import (
	"context"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/sim"
)

func inf() float64 { return math.Inf(1) }

type collectSink struct {
	cmds []dynamo.Twist
	fail int
}

func (c *collectSink) Send(ctx context.Context, cmd dynamo.Twist) error {
	if c.fail > 0 && len(c.cmds) == c.fail {
		return dynamo.ErrSinkClosed
	}
	c.cmds = append(c.cmds, cmd)
	return nil
}

var _ = Describe("Driver", func() {
	It("forwards one command per pose in arrival order", func() {
		sink := &collectSink{}
		d := sim.NewDriver(newPolygon(), sink, nil)

		poses := make(chan dynamo.Pose, 3)
		poses <- dynamo.Pose{X: 0}
		poses <- dynamo.Pose{X: 0.5}
		poses <- dynamo.Pose{X: 1.0}
		close(poses)

		Expect(d.Run(context.Background(), poses)).To(Succeed())
		Expect(sink.cmds).To(Equal([]dynamo.Twist{{Linear: 0.5}, {Linear: 0.5}, {Angular: 0.3}}))
		Expect(d.Handled()).To(Equal(3))
	})

	It("forwards explicit stop commands", func() {
		sink := &collectSink{}
		d := sim.NewDriver(newPolygon(), sink, nil)
		ctx := context.Background()

		Expect(d.Handle(ctx, dynamo.Pose{})).To(Succeed())
		Expect(d.Handle(ctx, dynamo.Pose{X: 1, Theta: 2 * math.Pi / 3})).To(Succeed())
		Expect(sink.cmds).To(HaveLen(2))
		Expect(sink.cmds[1]).To(Equal(dynamo.Stop))
	})

	It("stops on a sink error", func() {
		sink := &collectSink{fail: 1}
		d := sim.NewDriver(newPolygon(), sink, nil)

		poses := make(chan dynamo.Pose, 3)
		for i := 0; i < 3; i++ {
			poses <- dynamo.Pose{X: 0.1 * float64(i)}
		}

		err := d.Run(context.Background(), poses)
		Expect(err).To(HaveOccurred())
		Expect(errors.Cause(err)).To(Equal(dynamo.ErrSinkClosed))
		Expect(d.Handled()).To(Equal(2))
	})

	It("returns when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d := sim.NewDriver(newPolygon(), &collectSink{}, nil)
		Expect(d.Run(ctx, make(chan dynamo.Pose))).To(MatchError(context.Canceled))
	})

	It("serializes concurrent callers", func() {
		sink := &collectSink{}
		d := sim.NewDriver(newPolygon(), sink, nil)

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_ = d.Handle(context.Background(), dynamo.Pose{})
				}
			}()
		}
		wg.Wait()

		Expect(d.Handled()).To(Equal(400))
		Expect(sink.cmds).To(HaveLen(400))
	})
})
