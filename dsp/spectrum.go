package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum computes windowed magnitude spectra of fixed-size real blocks.
// It precomputes the window coefficients and the FFT plan once per
// (window, size) pair. Magnitude is a pure function of its input block:
// identical blocks always produce identical output.
//
// A Spectrum is not safe for concurrent use.
type Spectrum struct {
	size     int
	window   []float64
	fft      *fourier.FFT
	windowed []float64
	coeffs   []complex128
}

// NewSpectrum returns a spectrum for blocks of the given size.
func NewSpectrum(w Window, size int) *Spectrum {
	return &Spectrum{
		size:     size,
		window:   w.Coefficients(size),
		fft:      fourier.NewFFT(size),
		windowed: make([]float64, size),
		coeffs:   make([]complex128, size/2+1),
	}
}

// Size returns the block length.
func (s *Spectrum) Size() int {
	return s.size
}

// Magnitude returns |FFT(block*window)[k]| / (size/2) for k = 0..size/2.
// The block must have exactly Size samples. The result is freshly
// allocated on every call.
func (s *Spectrum) Magnitude(block []float64) []float64 {
	for k := range s.windowed {
		s.windowed[k] = block[k] * s.window[k]
	}
	s.coeffs = s.fft.Coefficients(s.coeffs, s.windowed)
	mag := make([]float64, s.size/2+1)
	half := float64(s.size / 2)
	for k := range mag {
		mag[k] = cmplx.Abs(s.coeffs[k]) / half
	}
	return mag
}
