// Package storage writes per-session artifacts (audio capture, transcript
// log) to local disk. Writes are best-effort: failures are logged and never
// surfaced to the relay path.
package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/prasetya/voicerelay/internal/audio"
	"github.com/prasetya/voicerelay/internal/session"
)

// Artifact file names inside a session directory.
const (
	AudioFileName      = "audio.wav"
	TranscriptFileName = "transcripts.jsonl"
)

// Recorder accumulates the PCM16 audio relayed for one session and flushes
// it, together with the transcript log, under <dir>/<session id>/.
type Recorder struct {
	mu  sync.Mutex
	pcm []byte

	dir        string
	sampleRate int
	logger     *zap.Logger
}

// NewRecorder builds a Recorder rooted at dir for the given session.
func NewRecorder(dir, sessionID string, sampleRate int, logger *zap.Logger) *Recorder {
	return &Recorder{
		dir:        filepath.Join(dir, sessionID),
		sampleRate: sampleRate,
		logger:     logger.With(zap.String("dir", filepath.Join(dir, sessionID))),
	}
}

// Record appends a frame of relayed audio to the capture buffer.
func (r *Recorder) Record(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pcm = append(r.pcm, pcm...)
}

// Captured reports how many bytes of audio are buffered.
func (r *Recorder) Captured() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pcm)
}

// Flush writes the WAV capture and the transcript log. Errors are logged,
// not returned; there is no retry and no durability promise.
func (r *Recorder) Flush(snap session.Snapshot) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.logger.Warn("create artifact dir failed", zap.Error(err))
		return
	}

	r.flushAudio()
	r.flushTranscripts(snap)
}

func (r *Recorder) flushAudio() {
	r.mu.Lock()
	pcm := make([]byte, len(r.pcm))
	copy(pcm, r.pcm)
	r.mu.Unlock()

	if len(pcm) == 0 {
		return
	}

	f, err := os.Create(filepath.Join(r.dir, AudioFileName))
	if err != nil {
		r.logger.Warn("create audio artifact failed", zap.Error(err))
		return
	}
	defer f.Close()

	if err := audio.WriteWAV(f, pcm, r.sampleRate); err != nil {
		r.logger.Warn("write audio artifact failed", zap.Error(err))
		return
	}
	r.logger.Debug("wrote audio artifact", zap.Int("pcm_bytes", len(pcm)))
}

func (r *Recorder) flushTranscripts(snap session.Snapshot) {
	if len(snap.Transcripts) == 0 {
		return
	}

	f, err := os.Create(filepath.Join(r.dir, TranscriptFileName))
	if err != nil {
		r.logger.Warn("create transcript artifact failed", zap.Error(err))
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, t := range snap.Transcripts {
		if err := enc.Encode(t); err != nil {
			r.logger.Warn("write transcript artifact failed", zap.Error(err))
			return
		}
	}
	if err := w.Flush(); err != nil {
		r.logger.Warn("flush transcript artifact failed", zap.Error(err))
		return
	}
	r.logger.Debug("wrote transcript artifact", zap.Int("count", len(snap.Transcripts)))
}
