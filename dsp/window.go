// Package dsp provides the shared numeric helpers of the scope pipeline:
// window generation and real-input FFT magnitude spectra.
package dsp

import (
	"fmt"
	"math"
)

// Window enumerates supported taper shapes applied before the spectral
// transform to reduce leakage.
type Window int

const (
	// Rect applies no taper.
	Rect Window = iota
	// Hann is the raised cosine 0.5 - 0.5*cos.
	Hann
	// Hamming is the 0.54 - 0.46*cos taper.
	Hamming
)

func (w Window) String() string {
	switch w {
	case Rect:
		return "rect"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	}
	return "unknown"
}

// ParseWindow converts a window name to a Window.
func ParseWindow(s string) (Window, error) {
	switch s {
	case "rect":
		return Rect, nil
	case "hann":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	}
	return 0, fmt.Errorf("unknown window %q", s)
}

// Coefficients returns the n taper coefficients of w.
func (w Window) Coefficients(n int) []float64 {
	c := make([]float64, n)
	switch w {
	case Hann:
		cosine(c, 0.5, 0.5)
	case Hamming:
		cosine(c, 0.54, 0.46)
	default:
		for k := range c {
			c[k] = 1
		}
	}
	return c
}

func cosine(c []float64, a0, a1 float64) {
	if len(c) < 2 {
		for k := range c {
			c[k] = 1
		}
		return
	}
	for k := range c {
		c[k] = a0 - a1*math.Cos(2*math.Pi*float64(k)/float64(len(c)-1))
	}
}
