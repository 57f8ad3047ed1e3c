package engine

import "encoding/binary"

// applyGain scales samples in place and clips to the int16 range.
func applyGain(samples []int16, factor float64) {
	for i := range samples {
		val := float64(samples[i]) * factor
		if val > 32767 {
			val = 32767
		} else if val < -32768 {
			val = -32768
		}
		samples[i] = int16(val)
	}
}

// pcmBytes serializes samples as little-endian into dst and returns
// the byte length. dst must hold 2*len(samples) bytes.
func pcmBytes(samples []int16, dst []byte) int {
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(s))
	}
	return len(samples) * 2
}
