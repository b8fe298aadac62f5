package scope

import (
	"math"

	"github.com/dudk/scope/dsp"
)

// Scale selects the amplitude scaling of emitted spectra.
type Scale int

const (
	// ScaleVRMS emits bin magnitudes in volts RMS.
	ScaleVRMS Scale = iota
	// ScaleDBV emits bin magnitudes in dB relative to 1 Vrms.
	ScaleDBV
)

func (s Scale) String() string {
	switch s {
	case ScaleVRMS:
		return "vrms"
	case ScaleDBV:
		return "dbv"
	}
	return "unknown"
}

// ParseScale converts a scale name to a Scale.
func ParseScale(s string) (Scale, error) {
	switch s {
	case "vrms":
		return ScaleVRMS, nil
	case "dbv":
		return ScaleDBV, nil
	}
	return 0, newConfigError("fft.scale", s, "unknown scale")
}

// MinFFTSize is the smallest accepted FFT block size.
const MinFFTSize = 128

// dbvFloor keeps all-zero blocks finite on the dB scale.
const dbvFloor = 1e-20

// FFTConfig is the frequency-mode configuration of a channel.
type FFTConfig struct {
	Window dsp.Window
	Scale  Scale
	// Size is the FFT block length, a power of two >= MinFFTSize.
	Size int
	// SpanHz and CenterHz define the frequency viewport selecting the
	// contiguous subset of bins to emit.
	SpanHz   float64
	CenterHz float64
	// SamplingPeriod is the seconds-per-sample of the source.
	SamplingPeriod float64
}

// spectrum holds the frequency-mode state of a channel.
type spectrum struct {
	cfg      FFTConfig
	sp       *dsp.Spectrum
	fifo     []float64
	selected []int     // bin indices inside the viewport
	bins     []float64 // bins[k] in Hz, k = 0..size/2
}

func newSpectrum(cfg FFTConfig) (*spectrum, error) {
	if cfg.Size < MinFFTSize || cfg.Size&(cfg.Size-1) != 0 {
		return nil, newConfigError("fft.size", cfg.Size, "must be a power of two >= 128")
	}
	if cfg.SpanHz <= 0 {
		return nil, newConfigError("fft.spanHz", cfg.SpanHz, "must be positive")
	}
	if cfg.SamplingPeriod <= 0 {
		return nil, newConfigError("fft.samplingPeriod", cfg.SamplingPeriod, "must be positive")
	}
	bins := make([]float64, cfg.Size/2+1)
	for k := range bins {
		bins[k] = float64(k) / (float64(cfg.Size) * cfg.SamplingPeriod)
	}
	lo, hi := cfg.CenterHz-cfg.SpanHz/2, cfg.CenterHz+cfg.SpanHz/2
	var selected []int
	for k, hz := range bins {
		if hz >= lo && hz <= hi {
			selected = append(selected, k)
		}
	}
	if len(selected) == 0 {
		return nil, newConfigError("fft.centerHz", cfg.CenterHz, "no bins inside span")
	}
	return &spectrum{
		cfg:      cfg,
		sp:       dsp.NewSpectrum(cfg.Window, cfg.Size),
		fifo:     make([]float64, 0, cfg.Size),
		selected: selected,
		bins:     bins,
	}, nil
}

func (s *spectrum) reset() {
	s.fifo = s.fifo[:0]
}

// SwitchToFrequencyMode switches the channel to spectral output. On error
// the channel stays in its previous mode; on success all buffers are
// reset.
func (c *Channel) SwitchToFrequencyMode(cfg FFTConfig) error {
	spec, err := newSpectrum(cfg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spec = spec
	c.buf = c.buf[:0]
	c.log.Debug("channel ", c, " in frequency mode: size ", cfg.Size, ", window ", cfg.Window)
	return nil
}

// SwitchToTimeMode switches the channel back to time-domain output and
// resets all buffers.
func (c *Channel) SwitchToTimeMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spec = nil
	c.buf = c.buf[:0]
	c.log.Debug("channel ", c, " in time mode")
}

// FrequencyMode reports whether the channel emits spectra.
func (c *Channel) FrequencyMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spec != nil
}

// FrequencyRange returns the Hz bounds of the currently selected bins.
// It returns ErrWrongMode outside frequency mode.
func (c *Channel) FrequencyRange() (fMin, fMax float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.spec == nil {
		return 0, 0, ErrWrongMode
	}
	s := c.spec
	return s.bins[s.selected[0]], s.bins[s.selected[len(s.selected)-1]], nil
}

// Frequencies returns the Hz value of every selected bin, index-aligned
// with emitted frames. It returns ErrWrongMode outside frequency mode.
func (c *Channel) Frequencies() ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.spec == nil {
		return nil, ErrWrongMode
	}
	hz := make([]float64, len(c.spec.selected))
	for n, k := range c.spec.selected {
		hz[n] = c.spec.bins[k]
	}
	return hz, nil
}

// feedFrequency runs the frequency-domain algorithm: non-overlapping
// blocks, no overlap-add. Called with the lock held.
func (c *Channel) feedFrequency(chunk []float64) []Frame {
	s := c.spec
	size := s.cfg.Size
	if len(chunk) > size {
		// Oversized chunk: older material is lost.
		s.fifo = s.fifo[:0]
		chunk = chunk[len(chunk)-size:]
	}
	free := size - len(s.fifo)
	if free > len(chunk) {
		free = len(chunk)
	}
	s.fifo = append(s.fifo, chunk[:free]...)
	chunk = chunk[free:]
	if len(s.fifo) < size {
		return nil
	}
	mag := s.sp.Magnitude(s.fifo)
	// Non-overlapping blocks: clear the FIFO, the chunk remainder starts
	// the next block.
	s.fifo = append(s.fifo[:0], chunk...)
	frame := make(Frame, len(s.selected))
	for n, k := range s.selected {
		y := mag[k] / math.Sqrt2
		if s.cfg.Scale == ScaleDBV {
			y = 20 * math.Log10(math.Max(y, dbvFloor))
		}
		frame[n] = y
	}
	c.last = frame
	return []Frame{frame}
}
