package audio

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrOddLength reports a PCM16 payload whose byte count is not a multiple of
// the sample width. The frame is dropped at the boundary; the session is
// unaffected.
var ErrOddLength = errors.New("pcm16 payload has odd byte length")

// DecodePCM16LE converts raw little-endian 16-bit PCM bytes into normalized
// float32 samples in [-1.0, 1.0].
func DecodePCM16LE(raw []byte) ([]float32, error) {
	if len(raw)%2 != 0 {
		return nil, ErrOddLength
	}
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples, nil
}

// EncodePCM16LE converts normalized float32 samples back into little-endian
// 16-bit PCM bytes, clamping out-of-range values. The 32768 scale matches
// DecodePCM16LE, keeping decode(encode(s)) within one quantization step.
func EncodePCM16LE(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		scaled := math.Round(float64(s) * 32768)
		if scaled > 32767 {
			scaled = 32767
		}
		if scaled < -32768 {
			scaled = -32768
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(scaled)))
	}
	return out
}
