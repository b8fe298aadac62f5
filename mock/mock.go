// Package mock provides a simulated sample source: sine chunks of random
// size delivered at random short intervals, the way a serial acquisition
// board drip-feeds real hardware. It is used by tests and the demo CLI.
package mock

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/dudk/scope"
)

const (
	defaultMaxChunk  = 5
	defaultInterval  = 500 * time.Microsecond
	defaultAmplitude = 1.0
	// phaseDivider stretches the sine over ~94 samples per period.
	phaseDivider = 15.0
)

// Source generates sine sample chunks. Configure the public fields before
// calling Run; zero values fall back to defaults.
type Source struct {
	scope.ChunkPublisher

	// Interval is the upper bound of the random delay between chunks.
	Interval time.Duration
	// MaxChunk is the largest chunk size. Sizes are uniform in [1, MaxChunk].
	MaxChunk int
	// Amplitude scales the generated sine.
	Amplitude float64
	// Limit bounds the total number of delivered samples. 0 means unbounded.
	Limit int
}

// Run delivers chunks until the context is done or Limit is reached.
func (s *Source) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	maxChunk := s.MaxChunk
	if maxChunk <= 0 {
		maxChunk = defaultMaxChunk
	}
	amplitude := s.Amplitude
	if amplitude == 0 {
		amplitude = defaultAmplitude
	}
	var x int
	for s.Limit == 0 || x < s.Limit {
		delay := time.Duration(rand.Int63n(int64(interval))) + 1
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		n := 1 + rand.Intn(maxChunk)
		if s.Limit > 0 && x+n > s.Limit {
			n = s.Limit - x
		}
		chunk := make([]float64, n)
		for i := range chunk {
			chunk[i] = amplitude * math.Sin(float64(x+i)/phaseDivider)
		}
		x += n
		s.Publish(chunk)
	}
	return nil
}
