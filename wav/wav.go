// Package wav replays recorded waveforms from wav files as a sample
// source, for feeding captured signals back through the scope pipeline.
package wav

import (
	"context"
	"errors"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/scope"
)

// ErrNotValid is returned when the file is not a readable wav.
var ErrNotValid = errors.New("wav is not valid")

// Source reads a wav file and publishes mono float64 chunks. Multichannel
// files are mixed down by averaging.
type Source struct {
	scope.ChunkPublisher

	// Realtime paces the replay at the file's sample rate. When false the
	// file is replayed as fast as consumers accept it.
	Realtime bool

	chunkSize int
	file      *os.File
	decoder   *wav.Decoder
	ib        *audio.IntBuffer
}

// NewSource opens a wav file for replay with the given chunk size.
func NewSource(path string, chunkSize int) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, ErrNotValid
	}
	return &Source{
		chunkSize: chunkSize,
		file:      file,
		decoder:   decoder,
		ib: &audio.IntBuffer{
			Format:         decoder.Format(),
			Data:           make([]int, chunkSize*decoder.Format().NumChannels),
			SourceBitDepth: int(decoder.BitDepth),
		},
	}, nil
}

// SampleRate returns the file's sample rate.
func (s *Source) SampleRate() int {
	return int(s.decoder.SampleRate)
}

// SamplingPeriod returns seconds per sample, for channel configuration.
func (s *Source) SamplingPeriod() float64 {
	return 1 / float64(s.decoder.SampleRate)
}

// NumChannels returns the file's channel count.
func (s *Source) NumChannels() int {
	return s.decoder.Format().NumChannels
}

// Run replays the file chunk by chunk and returns nil at end of file.
func (s *Source) Run(ctx context.Context) error {
	numChannels := s.decoder.Format().NumChannels
	devider := float64(bitDepthDevider(int(s.decoder.BitDepth)))
	var pace time.Duration
	if s.Realtime {
		pace = time.Duration(float64(s.chunkSize) / float64(s.decoder.SampleRate) * float64(time.Second))
	}
	for {
		n, err := s.decoder.PCMBuffer(s.ib)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		frames := n / numChannels
		chunk := make([]float64, frames)
		for i := 0; i < frames; i++ {
			var sum float64
			for j := 0; j < numChannels; j++ {
				sum += float64(s.ib.Data[i*numChannels+j]) / devider
			}
			chunk[i] = sum / float64(numChannels)
		}
		if pace > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pace):
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Publish(chunk)
	}
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.file.Close()
}

// bitDepthDevider is used when int to float conversion is done.
func bitDepthDevider(bitDepth int) int {
	switch bitDepth {
	case 8:
		return math.MaxInt8
	case 16:
		return math.MaxInt16
	case 24:
		return 1<<23 - 1
	case 32:
		return math.MaxInt32
	default:
		return 1
	}
}
