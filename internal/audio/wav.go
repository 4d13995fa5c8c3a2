package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

const wavHeaderSize = 44

// WriteWAV writes a RIFF/WAVE file containing mono PCM16 data at the
// given sample rate.
func WriteWAV(w io.Writer, pcm []byte, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	var header [wavHeaderSize]byte
	dataLen := uint32(len(pcm))
	byteRate := uint32(sampleRate * BytesPerSample)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataLen)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], BytesPerSample) // block align
	binary.LittleEndian.PutUint16(header[34:36], 16)             // bits per sample

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataLen)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

// EncodeWAV renders mono PCM16 data as a complete WAV file in memory.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	buf := make([]byte, 0, wavHeaderSize+len(pcm))
	w := &appendWriter{buf: buf}
	// appendWriter never fails
	_ = WriteWAV(w, pcm, sampleRate)
	return w.buf
}

type appendWriter struct{ buf []byte }

func (w *appendWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
