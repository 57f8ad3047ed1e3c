// Package viz reduces PCM chunks to the small shapes a UI can draw:
// peak points, an RMS level, a coarse frequency spectrum. Consumers
// sit outside the engine; nothing here feeds back into playback.
package viz

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

const fftSize = 1024

// Peaks appends the peak sample of chunk to points, one point per
// chunk, for a scrolling waveform.
func Peaks(chunk []int16, points []int16) []int16 {
	if len(chunk) == 0 {
		return points
	}
	var max int16
	for _, v := range chunk {
		if v > max {
			max = v
		}
		if -v > max {
			max = -v
		}
	}
	return append(points, max)
}

// RMS returns the chunk energy normalized to [0,1].
func RMS(chunk []int16) float64 {
	if len(chunk) == 0 {
		return 0
	}
	var sum float64
	for _, v := range chunk {
		f := float64(v)
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(chunk)))
	return math.Min(rms/32768.0, 1.0)
}

// Spectrum runs an FFT over the first fftSize samples of chunk and
// folds the magnitude half-spectrum into bins. Shorter chunks are
// zero-padded.
func Spectrum(chunk []int16, bins int) []float64 {
	if bins <= 0 {
		return nil
	}

	window := make([]float64, fftSize)
	n := len(chunk)
	if n > fftSize {
		n = fftSize
	}
	for i := 0; i < n; i++ {
		window[i] = float64(chunk[i])
	}

	coeffs := fft.FFTReal(window)

	half := fftSize / 2
	if bins > half {
		bins = half
	}
	per := half / bins

	out := make([]float64, bins)
	for b := 0; b < bins; b++ {
		var acc float64
		for i := b * per; i < (b+1)*per; i++ {
			re, im := real(coeffs[i]), imag(coeffs[i])
			acc += math.Sqrt(re*re + im*im)
		}
		out[b] = acc / float64(per)
	}
	return out
}
