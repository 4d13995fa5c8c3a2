// Package audio holds PCM16 helpers shared by the relay and the artifact
// writer: duration math, chunking, and WAV encoding.
package audio

import (
	"encoding/binary"
	"time"
)

// BytesPerSample for 16-bit mono PCM.
const BytesPerSample = 2

// Duration returns the play time of n bytes of PCM16 mono audio at the
// given sample rate.
func Duration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(sampleRate*BytesPerSample)
}

// AlignSamples rounds n down to a whole number of 16-bit samples so a
// chunk never splits a sample across two frames.
func AlignSamples(n int) int {
	return (n / BytesPerSample) * BytesPerSample
}

// Silence returns n bytes of PCM16 silence.
func Silence(n int) []byte {
	return make([]byte, n)
}

// BytesToSamples decodes little-endian PCM16 bytes into int16 samples.
// A trailing odd byte is dropped.
func BytesToSamples(b []byte) []int16 {
	out := make([]int16, len(b)/BytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*BytesPerSample:]))
	}
	return out
}

// SamplesToBytes encodes int16 samples as little-endian PCM16 bytes.
func SamplesToBytes(s []int16) []byte {
	out := make([]byte, len(s)*BytesPerSample)
	for i, v := range s {
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(v))
	}
	return out
}
