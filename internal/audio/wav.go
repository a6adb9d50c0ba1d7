package audio

import (
	"bytes"
	"encoding/binary"
	"io"
)

// wavHeader builds the 44-byte RIFF/WAVE header for mono PCM16LE data.
func wavHeader(dataSize uint32, sampleRate int) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	byteRate := uint32(sampleRate * numChannels * bitsPerSample / 8)
	blockAlign := uint16(numChannels * bitsPerSample / 8)

	h := make([]byte, 44)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 36+dataSize)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], numChannels)
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], byteRate)
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)
	return h
}

// WriteWAVTo writes float32 samples to out as a mono PCM16LE WAV stream.
func WriteWAVTo(out io.Writer, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	pcm := EncodePCM16LE(samples)
	if _, err := out.Write(wavHeader(uint32(len(pcm)), sampleRate)); err != nil {
		return err
	}
	_, err := out.Write(pcm)
	return err
}

// EncodeWAV wraps float32 samples in a mono PCM16LE WAV container.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(44 + 2*len(samples))
	if err := WriteWAVTo(&buf, samples, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
