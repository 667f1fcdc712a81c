package sim_test

import (
	"bytes"
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/sim"
)

func drain(poses <-chan dynamo.Pose) []dynamo.Pose {
	var out []dynamo.Pose
	for p := range poses {
		out = append(out, p)
	}
	return out
}

var _ = Describe("JSON lines", func() {
	It("decodes poses and skips blank or malformed lines", func() {
		in := strings.NewReader("{\"x\":1,\"y\":2,\"theta\":0.5}\n\nnot json\n{\"x\":3}\n")
		src := sim.ReadPoses(context.Background(), in, nil)

		Expect(drain(src.Poses())).To(Equal([]dynamo.Pose{{X: 1, Y: 2, Theta: 0.5}, {X: 3}}))
		Expect(src.Err()).To(Succeed())
	})

	It("stops reading when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		src := sim.ReadPoses(ctx, strings.NewReader("{\"x\":1}\n{\"x\":2}\n"), nil)
		cancel()

		Expect(src.Err()).To(Succeed())
		Expect(drain(src.Poses())).To(BeEmpty())
	})

	It("writes one command per line", func() {
		var buf bytes.Buffer
		sink := sim.NewJSONSink(&buf)
		Expect(sink.Send(context.Background(), dynamo.Twist{Linear: 0.5})).To(Succeed())
		Expect(sink.Send(context.Background(), dynamo.Stop)).To(Succeed())

		Expect(buf.String()).To(Equal("{\"linear\":0.5,\"angular\":0}\n{\"linear\":0,\"angular\":0}\n"))
	})

	It("drives the controller end to end", func() {
		in := strings.NewReader("{\"x\":0,\"y\":0,\"theta\":0}\n{\"x\":0.5,\"y\":0,\"theta\":0}\n{\"x\":1.0,\"y\":0,\"theta\":0}\n")
		var out bytes.Buffer

		ctx := context.Background()
		src := sim.ReadPoses(ctx, in, nil)
		d := sim.NewDriver(newPolygon(), sim.NewJSONSink(&out), nil)
		Expect(d.RunSource(ctx, src)).To(Succeed())
		Expect(src.Err()).To(Succeed())

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[0]).To(Equal("{\"linear\":0.5,\"angular\":0}"))
		Expect(lines[2]).To(Equal("{\"linear\":0,\"angular\":0.3}"))
	})
})
