package scope_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/scope"
	"github.com/dudk/scope/dsp"
)

// fftConfig covers the whole 0..64 Hz range at 1 Hz resolution.
func fftConfig() scope.FFTConfig {
	return scope.FFTConfig{
		Window:         dsp.Rect,
		Scale:          scope.ScaleVRMS,
		Size:           128,
		SpanHz:         128,
		CenterHz:       32,
		SamplingPeriod: 1.0 / 128,
	}
}

// sine samples sin(2*pi*hz*t) at 128 Hz.
func sine(hz float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Sin(2 * math.Pi * hz * float64(i) / 128)
	}
	return s
}

func TestSwitchToFrequencyMode(t *testing.T) {
	ch, err := scope.NewChannel()
	require.NoError(t, err)

	_, _, err = ch.FrequencyRange()
	assert.ErrorIs(t, err, scope.ErrWrongMode)
	_, err = ch.Frequencies()
	assert.ErrorIs(t, err, scope.ErrWrongMode)

	require.NoError(t, ch.SwitchToFrequencyMode(fftConfig()))
	assert.True(t, ch.FrequencyMode())

	fMin, fMax, err := ch.FrequencyRange()
	require.NoError(t, err)
	assert.Equal(t, 0.0, fMin)
	assert.Equal(t, 64.0, fMax)

	hz, err := ch.Frequencies()
	require.NoError(t, err)
	require.Len(t, hz, 65)
	assert.Equal(t, 16.0, hz[16])

	ch.SwitchToTimeMode()
	assert.False(t, ch.FrequencyMode())
	_, _, err = ch.FrequencyRange()
	assert.ErrorIs(t, err, scope.ErrWrongMode)
}

func TestSwitchValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*scope.FFTConfig)
	}{
		{"size below minimum", func(c *scope.FFTConfig) { c.Size = 64 }},
		{"size not power of two", func(c *scope.FFTConfig) { c.Size = 192 }},
		{"zero span", func(c *scope.FFTConfig) { c.SpanHz = 0 }},
		{"zero sampling period", func(c *scope.FFTConfig) { c.SamplingPeriod = 0 }},
		{"viewport outside range", func(c *scope.FFTConfig) { c.CenterHz = 1e6; c.SpanHz = 1 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ch, err := scope.NewChannel()
			require.NoError(t, err)

			cfg := fftConfig()
			test.mutate(&cfg)
			err = ch.SwitchToFrequencyMode(cfg)
			var confErr *scope.ConfigError
			require.True(t, errors.As(err, &confErr))
			// The channel stays in time mode.
			assert.False(t, ch.FrequencyMode())
		})
	}
}

func TestSpectrumVRMS(t *testing.T) {
	cfg := scope.DefaultConfig()
	cfg.SamplingPeriod = 1.0 / 128
	// Vertical scale and offset apply to time frames only.
	cfg.VerticalScale = 100
	cfg.VerticalOffset = 50
	ch, err := scope.NewChannel(scope.WithConfig(cfg))
	require.NoError(t, err)
	require.NoError(t, ch.SwitchToFrequencyMode(fftConfig()))
	frames := collect(ch)

	ch.Feed(sine(16, 128))

	require.Len(t, *frames, 1)
	f := (*frames)[0]
	require.Len(t, f, 65)
	assert.InDelta(t, 1/math.Sqrt2, f[16], 1e-9)
	for k, v := range f {
		if k == 16 {
			continue
		}
		assert.InDelta(t, 0, v, 1e-9)
	}
	assert.Equal(t, f, ch.LastFrame())
}

func TestSpectrumSelection(t *testing.T) {
	ch, err := scope.NewChannel()
	require.NoError(t, err)
	cfg := fftConfig()
	cfg.CenterHz = 32
	cfg.SpanHz = 8
	require.NoError(t, ch.SwitchToFrequencyMode(cfg))
	frames := collect(ch)

	fMin, fMax, err := ch.FrequencyRange()
	require.NoError(t, err)
	assert.Equal(t, 28.0, fMin)
	assert.Equal(t, 36.0, fMax)

	ch.Feed(sine(32, 128))
	require.Len(t, *frames, 1)
	f := (*frames)[0]
	require.Len(t, f, 9)
	assert.InDelta(t, 1/math.Sqrt2, f[4], 1e-9)
}

func TestSpectrumDBVFloor(t *testing.T) {
	ch, err := scope.NewChannel()
	require.NoError(t, err)
	cfg := fftConfig()
	cfg.Scale = scope.ScaleDBV
	require.NoError(t, ch.SwitchToFrequencyMode(cfg))
	frames := collect(ch)

	ch.Feed(make([]float64, 128))

	require.Len(t, *frames, 1)
	for _, v := range (*frames)[0] {
		// 20*log10(1e-20), the silence floor.
		assert.InDelta(t, -400, v, 1e-9)
	}
}

func TestSpectrumBlockBoundaries(t *testing.T) {
	ch, err := scope.NewChannel()
	require.NoError(t, err)
	require.NoError(t, ch.SwitchToFrequencyMode(fftConfig()))
	frames := collect(ch)

	s := sine(16, 256)
	ch.Feed(s[:100])
	assert.Empty(t, *frames)
	ch.Feed(s[100:200])
	assert.Len(t, *frames, 1)
	ch.Feed(s[200:])
	assert.Len(t, *frames, 2)
}

func TestSpectrumDeterminism(t *testing.T) {
	ch, err := scope.NewChannel()
	require.NoError(t, err)
	cfg := fftConfig()
	cfg.Window = dsp.Hann
	require.NoError(t, ch.SwitchToFrequencyMode(cfg))
	frames := collect(ch)

	block := sine(17.3, 128)
	ch.Feed(block)
	ch.Feed(block)

	require.Len(t, *frames, 2)
	assert.Equal(t, (*frames)[0], (*frames)[1])
}

func TestSwitchBackResetsTimeBuffer(t *testing.T) {
	cfg := timeConfig(8, scope.TriggerConfig{})
	ch, err := scope.NewChannel(scope.WithConfig(cfg))
	require.NoError(t, err)
	frames := collect(ch)

	ch.Feed(ramp(0, 10))
	require.NoError(t, ch.SwitchToFrequencyMode(fftConfig()))
	ch.SwitchToTimeMode()

	// The 10 samples buffered before the switch are gone.
	ch.Feed(ramp(0, 15))
	assert.Empty(t, *frames)
	ch.Feed(ramp(15, 1))
	assert.Len(t, *frames, 1)
}

func TestParseScale(t *testing.T) {
	for _, scale := range []scope.Scale{scope.ScaleVRMS, scope.ScaleDBV} {
		parsed, err := scope.ParseScale(scale.String())
		assert.NoError(t, err)
		assert.Equal(t, scale, parsed)
	}
	_, err := scope.ParseScale("bogus")
	assert.Error(t, err)
}
