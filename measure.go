package scope

import (
	"math"
	"sync"
)

// Statistic identifies the scalar a measurement reduces every frame to.
type Statistic int

const (
	// Max is the largest sample of the frame.
	Max Statistic = iota
	// Min is the smallest sample of the frame.
	Min
	// RMS is the root mean square of the frame, rounded to 4 decimals.
	RMS
)

func (s Statistic) String() string {
	switch s {
	case Max:
		return "max"
	case Min:
		return "min"
	case RMS:
		return "rms"
	}
	return "unknown"
}

// ParseStatistic converts a statistic name to a Statistic.
func ParseStatistic(s string) (Statistic, error) {
	switch s {
	case "max":
		return Max, nil
	case "min":
		return Min, nil
	case "rms":
		return RMS, nil
	}
	return 0, newConfigError("statistic", s, "unknown statistic")
}

func (s Statistic) reduce(f Frame) float64 {
	if len(f) == 0 {
		return 0
	}
	switch s {
	case Max:
		v := f[0]
		for _, x := range f[1:] {
			if x > v {
				v = x
			}
		}
		return v
	case Min:
		v := f[0]
		for _, x := range f[1:] {
			if x < v {
				v = x
			}
		}
		return v
	case RMS:
		var sum float64
		for _, x := range f {
			sum += x * x
		}
		return math.Round(math.Sqrt(sum/float64(len(f)))*1e4) / 1e4
	}
	return 0
}

// Measurement reduces every frame of one channel to a scalar and fans the
// result out to subscribed handlers. Multiple measurements may bind to
// the same channel independently.
type Measurement struct {
	stat   Statistic
	unsub  func()
	values valueHandlers

	mu   sync.Mutex
	last float64
}

// NewMeasurement binds a measurement to the channel's frame events.
func NewMeasurement(c *Channel, stat Statistic) *Measurement {
	m := &Measurement{stat: stat}
	m.unsub = c.OnFrame(m.update)
	return m
}

func (m *Measurement) update(f Frame) {
	v := m.stat.reduce(f)
	m.mu.Lock()
	m.last = v
	m.mu.Unlock()
	m.values.publish(v)
}

// Statistic returns the statistic this measurement computes.
func (m *Measurement) Statistic() Statistic {
	return m.stat
}

// Value returns the last computed value.
func (m *Measurement) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// OnValue subscribes a handler to value updates and returns its
// unsubscribe func.
func (m *Measurement) OnValue(fn MeasurementHandler) func() {
	return m.values.subscribe(fn)
}

// Unbind unsubscribes the measurement from its channel. No further
// updates happen after Unbind returns. It is the only teardown required.
func (m *Measurement) Unbind() {
	m.unsub()
}
