package scope

import (
	"context"

	"github.com/rs/xid"
)

// Frame is a fixed-length snapshot of channel output: time-domain samples
// or spectral magnitudes. Frames are published once and must be treated as
// immutable by both the channel and its consumers.
type Frame []float64

// ChunkHandler consumes one ordered chunk of raw samples.
type ChunkHandler func(chunk []float64)

// FrameHandler consumes frames emitted by a channel.
type FrameHandler func(frame Frame)

// MeasurementHandler consumes scalar values emitted by a measurement.
type MeasurementHandler func(value float64)

// Source is a producer of raw sample chunks. Run blocks and delivers
// chunks to all subscribed handlers in arrival order until the context is
// done or the underlying stream ends.
type Source interface {
	Run(ctx context.Context) error
	Subscribe(ChunkHandler) (unsubscribe func())
}

// Logger is a global interface for scope loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

type silentLogger struct{}

func (silentLogger) Debug(args ...interface{}) {}

func (silentLogger) Info(args ...interface{}) {}

var defaultLogger silentLogger

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}
