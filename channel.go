package scope

import (
	"math"
	"sync"
)

// TriggerMode selects how the channel searches its look-ahead buffer for
// an edge before assembling a frame.
type TriggerMode int

const (
	// TriggerNone disables the edge search, the channel free-runs.
	TriggerNone TriggerMode = iota
	// TriggerSingle behaves as TriggerNone unless single-shot capture is
	// enabled in TriggerConfig.
	TriggerSingle
	// TriggerRise fires on a crossing from below to above the threshold.
	TriggerRise
	// TriggerFall fires on a crossing from above to below the threshold.
	TriggerFall
	// TriggerRiseFall fires on a crossing in either direction.
	TriggerRiseFall
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerNone:
		return "none"
	case TriggerSingle:
		return "single"
	case TriggerRise:
		return "rise"
	case TriggerFall:
		return "fall"
	case TriggerRiseFall:
		return "risefall"
	}
	return "unknown"
}

// ParseTriggerMode converts a mode name to a TriggerMode.
func ParseTriggerMode(s string) (TriggerMode, error) {
	switch s {
	case "none":
		return TriggerNone, nil
	case "single":
		return TriggerSingle, nil
	case "rise":
		return TriggerRise, nil
	case "fall":
		return TriggerFall, nil
	case "risefall":
		return TriggerRiseFall, nil
	}
	return 0, newConfigError("trigger.mode", s, "unknown trigger mode")
}

// TriggerConfig defines the edge search of a time-domain channel.
type TriggerConfig struct {
	Mode      TriggerMode
	Threshold float64
	// PretriggerFraction is the fraction of the frame length reserved
	// ahead of the edge search. Valid range [0, 1).
	PretriggerFraction float64
	// HorizontalOffsetFraction shifts a triggered frame by a fraction of
	// its length. Valid range [-0.05, 0.05). Ignored in free-run.
	HorizontalOffsetFraction float64
	// SingleShot makes TriggerSingle capture one triggered frame on
	// either edge and then deactivate the channel until it is re-armed
	// with SetActive(true). When false, TriggerSingle behaves exactly
	// like TriggerNone.
	SingleShot bool
}

// Config is the time-domain configuration of a channel.
type Config struct {
	FrameLength    int
	Trigger        TriggerConfig
	VerticalScale  float64
	VerticalOffset float64
	// SamplingPeriod is the seconds-per-sample of the source, used only
	// for frequency-axis labeling.
	SamplingPeriod float64
}

// DefaultFrameLength is the frame length of a freshly created channel.
const DefaultFrameLength = 512

// DefaultConfig returns the configuration of a freshly created channel:
// default frame length, no trigger, unity vertical scale.
func DefaultConfig() Config {
	return Config{
		FrameLength:    DefaultFrameLength,
		VerticalScale:  1,
		SamplingPeriod: 1,
	}
}

// Channel owns one streaming pipeline: it consumes chunks, maintains a
// bounded look-ahead buffer, performs trigger search or spectral
// transform and emits fixed-length frames.
type Channel struct {
	uid  string
	name string
	log  Logger

	mu     sync.Mutex
	active bool
	cfg    Config
	post   int       // post-trigger tail length
	buf    []float64 // look-ahead FIFO, len never exceeds capacity
	spec   *spectrum // non-nil in frequency mode
	last   Frame

	frames frameHandlers
}

// Option provides a way to set functional parameters to channel.
type Option func(c *Channel) error

// WithName sets name to channel.
func WithName(n string) Option {
	return func(c *Channel) error {
		c.name = n
		return nil
	}
}

// WithLogger sets logger to channel. If this option is not provided,
// silent logger is used.
func WithLogger(l Logger) Option {
	return func(c *Channel) error {
		c.log = l
		return nil
	}
}

// WithConfig applies an initial configuration, validated the same way as
// Configure.
func WithConfig(cfg Config) Option {
	return func(c *Channel) error {
		return c.Configure(cfg)
	}
}

// NewChannel creates a new active channel with the default configuration
// and applies provided options.
func NewChannel(options ...Option) (*Channel, error) {
	c := &Channel{
		uid:    newUID(),
		log:    defaultLogger,
		active: true,
		cfg:    DefaultConfig(),
	}
	c.post = postTriggerLength(c.cfg)
	c.buf = make([]float64, 0, c.cfg.FrameLength+c.post)
	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// UID returns the channel's unique id.
func (c *Channel) UID() string {
	return c.uid
}

// Name returns the channel's name.
func (c *Channel) Name() string {
	return c.name
}

// OnFrame subscribes a handler to the channel's frame emissions and
// returns its unsubscribe func. Handlers run synchronously on the feeding
// goroutine, in subscription order.
func (c *Channel) OnFrame(fn FrameHandler) func() {
	return c.frames.subscribe(fn)
}

// Config returns the current time-domain configuration.
func (c *Channel) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Active reports whether the channel consumes chunks.
func (c *Channel) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetActive pauses or resumes the channel without unsubscribing it. Feed
// is a no-op while the channel is inactive.
func (c *Channel) SetActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
}

// LastFrame returns the last published frame, or nil if nothing has been
// emitted yet.
func (c *Channel) LastFrame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Configure atomically replaces the time-domain configuration. On error
// nothing is changed; on success the look-ahead buffer is reset and
// buffered samples are discarded.
func (c *Channel) Configure(cfg Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	c.post = postTriggerLength(cfg)
	c.buf = make([]float64, 0, cfg.FrameLength+c.post)
	if c.spec != nil {
		c.spec.reset()
	}
	c.log.Debug("channel ", c, " configured: frame length ", cfg.FrameLength, ", trigger ", cfg.Trigger.Mode)
	return nil
}

func validateConfig(cfg Config) error {
	if cfg.FrameLength <= 0 {
		return newConfigError("frameLength", cfg.FrameLength, "must be positive")
	}
	if cfg.Trigger.PretriggerFraction < 0 || cfg.Trigger.PretriggerFraction >= 1 {
		return newConfigError("trigger.pretriggerFraction", cfg.Trigger.PretriggerFraction, "must be in [0, 1)")
	}
	if f := cfg.Trigger.HorizontalOffsetFraction; f < -0.05 || f >= 0.05 {
		return newConfigError("trigger.horizontalOffsetFraction", f, "must be in [-0.05, 0.05)")
	}
	if cfg.SamplingPeriod <= 0 {
		return newConfigError("samplingPeriod", cfg.SamplingPeriod, "must be positive")
	}
	return nil
}

// postTriggerLength is frameLength - floor(frameLength * pretrigger).
func postTriggerLength(cfg Config) int {
	return cfg.FrameLength - int(float64(cfg.FrameLength)*cfg.Trigger.PretriggerFraction)
}

// Feed is the single streaming entry point. It appends the chunk to the
// look-ahead buffer and emits zero or more frames. Feed never blocks on
// I/O and must be called from a single producer goroutine.
func (c *Channel) Feed(chunk []float64) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	var emitted []Frame
	if c.spec != nil {
		emitted = c.feedFrequency(chunk)
	} else {
		emitted = c.feedTime(chunk)
	}
	c.mu.Unlock()
	for _, f := range emitted {
		c.frames.publish(f)
	}
}

// feedTime runs the time-domain algorithm. Called with the lock held.
func (c *Channel) feedTime(chunk []float64) []Frame {
	capacity := c.cfg.FrameLength + c.post
	if len(chunk) > capacity {
		// Oversized chunk: older material within the chunk is lost.
		c.buf = append(c.buf[:0], chunk[len(chunk)-capacity:]...)
		chunk = nil
	}
	var frames []Frame
	for {
		if free := capacity - len(c.buf); free > 0 && len(chunk) > 0 {
			n := free
			if n > len(chunk) {
				n = len(chunk)
			}
			c.buf = append(c.buf, chunk[:n]...)
			chunk = chunk[n:]
		}
		if len(c.buf) < capacity {
			return frames
		}
		f, triggered := c.assemble()
		c.last = f
		frames = append(frames, f)
		// Retain up to postTriggerLength samples as search context for
		// the next cycle.
		c.buf = append(c.buf[:0], c.buf[c.cfg.FrameLength:]...)
		if triggered && c.cfg.Trigger.Mode == TriggerSingle {
			c.active = false
			return frames
		}
	}
}

// assemble builds one frame from the full look-ahead buffer. It reports
// whether a trigger edge was accepted.
func (c *Channel) assemble() (Frame, bool) {
	var (
		full      = c.buf
		length    = c.cfg.FrameLength
		capacity  = length + c.post
		s0        = length - c.post // floor(frameLength * pretrigger)
		triggered = false
		start     = capacity - length // free-run: newest frameLength samples
	)
	if mode := searchMode(c.cfg.Trigger); mode != TriggerNone {
		if e, ok := findEdge(full, s0, c.cfg.Trigger.Threshold, mode); ok && e+c.post <= capacity {
			triggered = true
			offset := -int(math.Round(c.cfg.Trigger.HorizontalOffsetFraction * float64(length)))
			start = e + offset
		}
	}
	frame := make(Frame, length)
	for k := range frame {
		if idx := start + k; idx >= 0 && idx < capacity {
			frame[k] = full[idx]
		}
	}
	for k := range frame {
		frame[k] = frame[k]*c.cfg.VerticalScale + c.cfg.VerticalOffset
	}
	return frame, triggered
}

// searchMode maps the configured mode to the edge rule actually searched.
// TriggerSingle only arms an either-edge search in single-shot capture.
func searchMode(t TriggerConfig) TriggerMode {
	switch t.Mode {
	case TriggerRise, TriggerFall, TriggerRiseFall:
		return t.Mode
	case TriggerSingle:
		if t.SingleShot {
			return TriggerRiseFall
		}
	}
	return TriggerNone
}

// findEdge returns the absolute index of the first qualifying edge at or
// after s0. Only the first edge counts: if it fails the caller's room
// check, the cycle falls back to free-run.
func findEdge(full []float64, s0 int, threshold float64, mode TriggerMode) (int, bool) {
	for i := s0; i+1 < len(full); i++ {
		high, next := full[i] > threshold, full[i+1] > threshold
		var edge bool
		switch mode {
		case TriggerRise:
			edge = !high && next
		case TriggerFall:
			edge = high && !next
		case TriggerRiseFall:
			edge = high != next
		}
		if edge {
			return i, true
		}
	}
	return 0, false
}

// String returns the channel name if set, uid otherwise.
func (c *Channel) String() string {
	if c.name == "" {
		return c.uid
	}
	return c.name
}
