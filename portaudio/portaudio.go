// Package portaudio provides a live sample source reading from the
// default audio input device.
package portaudio

import (
	"context"

	"github.com/gordonklaus/portaudio"

	"github.com/dudk/scope"
)

// Source captures mono samples from the default input device.
type Source struct {
	scope.ChunkPublisher
	sampleRate int
	chunkSize  int
	buf        []float32
	stream     *portaudio.Stream
}

// NewSource returns a new source reading chunkSize samples per callback
// at the given sample rate.
func NewSource(sampleRate, chunkSize int) *Source {
	return &Source{
		sampleRate: sampleRate,
		chunkSize:  chunkSize,
	}
}

// SamplingPeriod returns seconds per sample, for channel configuration.
func (s *Source) SamplingPeriod() float64 {
	return 1 / float64(s.sampleRate)
}

// Run initializes portaudio, opens the default input stream and publishes
// chunks until the context is done.
func (s *Source) Run(ctx context.Context) error {
	err := portaudio.Initialize()
	if err != nil {
		return err
	}
	defer portaudio.Terminate()
	s.buf = make([]float32, s.chunkSize)
	s.stream, err = portaudio.OpenDefaultStream(1, 0, float64(s.sampleRate), s.chunkSize, &s.buf)
	if err != nil {
		return err
	}
	defer s.stream.Close()
	if err = s.stream.Start(); err != nil {
		return err
	}
	defer s.stream.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err = s.stream.Read(); err != nil {
			return err
		}
		chunk := make([]float64, len(s.buf))
		for i := range s.buf {
			chunk[i] = float64(s.buf[i])
		}
		s.Publish(chunk)
	}
}
