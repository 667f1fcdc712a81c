package sim

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/polydrive/internal/dynamo"
)

// LineSource is a PoseSource decoding one JSON pose per line. Blank and
// malformed lines are skipped.
type LineSource struct {
	poses chan dynamo.Pose
	errc  chan error
}

// ReadPoses starts decoding r. The pose channel closes at EOF, on a read error,
// or when ctx is done.
func ReadPoses(ctx context.Context, r io.Reader, logger *zap.Logger) *LineSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LineSource{poses: make(chan dynamo.Pose), errc: make(chan error, 1)}

	go func() {
		defer close(s.errc)
		defer close(s.poses)

		scanner := bufio.NewScanner(r)
		line := 0
		for scanner.Scan() {
			line++
			text := scanner.Bytes()
			if len(text) == 0 {
				continue
			}
			var p dynamo.Pose
			if err := json.Unmarshal(text, &p); err != nil {
				logger.Warn("skipping malformed pose", zap.Int("line", line), zap.Error(err))
				continue
			}
			select {
			case s.poses <- p:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.errc <- errors.Wrap(err, "reading poses")
		}
	}()
	return s
}

func (s *LineSource) Poses() <-chan dynamo.Pose { return s.poses }

// Err blocks until decoding stops and returns the read error, if any.
func (s *LineSource) Err() error { return <-s.errc }

// JSONSink writes each command as one JSON line.
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

func (s *JSONSink) Send(ctx context.Context, cmd dynamo.Twist) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(cmd)
}
