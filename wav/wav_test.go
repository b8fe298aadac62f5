package wav_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/scope/wav"
)

// writeWav encodes 16-bit mono PCM into a temp file.
func writeWav(t *testing.T, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := gowav.NewEncoder(f, 44100, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func TestSourceReplay(t *testing.T) {
	data := make([]int, 200)
	for i := range data {
		data[i] = i*100 - 10000
	}
	src, err := wav.NewSource(writeWav(t, data), 64)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 44100, src.SampleRate())
	assert.Equal(t, 1, src.NumChannels())
	assert.InDelta(t, 1.0/44100, src.SamplingPeriod(), 1e-12)

	var samples []float64
	src.Subscribe(func(chunk []float64) {
		samples = append(samples, chunk...)
	})
	require.NoError(t, src.Run(context.Background()))

	require.Len(t, samples, 200)
	for i, v := range samples {
		assert.InDelta(t, float64(data[i])/32767, v, 1e-12)
	}
}

func TestSourceCancel(t *testing.T) {
	src, err := wav.NewSource(writeWav(t, make([]int, 1000)), 64)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, src.Run(ctx), context.Canceled)
}

func TestNewSourceNotValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not wav"), 0o644))

	_, err := wav.NewSource(path, 64)
	assert.ErrorIs(t, err, wav.ErrNotValid)
}

func TestNewSourceMissingFile(t *testing.T) {
	_, err := wav.NewSource(filepath.Join(t.TempDir(), "missing.wav"), 64)
	assert.Error(t, err)
}
