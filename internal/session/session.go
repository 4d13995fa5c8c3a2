// Package session tracks per-connection transcription state for the
// lifetime of the process. Nothing here is durable; artifacts on disk are
// written by the storage package.
package session

import (
	"sync"
	"time"
)

// Session status values.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Transcript is one formatted turn with second offsets into the session
// audio.
type Transcript struct {
	Text      string    `json:"text"`
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the persistent context for a connection id. A browser that
// reconnects with the same id resumes its session.
type Session struct {
	mu sync.RWMutex

	ID                 string
	StartTime          time.Time
	EndTime            *time.Time
	TotalAudioDuration float64 // seconds
	Transcripts        []Transcript
	Status             string
	ErrorMessage       string
}

// AppendTranscript records one formatted turn.
func (s *Session) AppendTranscript(t Transcript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Transcripts = append(s.Transcripts, t)
}

// Complete marks the session finished with the given audio duration in
// seconds. A session already in a terminal state is left alone.
func (s *Session) Complete(audioDuration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status != StatusActive {
		return
	}
	s.Status = StatusCompleted
	s.TotalAudioDuration = audioDuration
	now := time.Now()
	s.EndTime = &now
}

// Fail marks the session errored with an upstream error description.
func (s *Session) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusError
	s.ErrorMessage = msg
	now := time.Now()
	s.EndTime = &now
}

// Snapshot returns a copy of the session safe to serialize without
// holding the lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transcripts := make([]Transcript, len(s.Transcripts))
	copy(transcripts, s.Transcripts)

	return Snapshot{
		ID:                 s.ID,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		TotalAudioDuration: s.TotalAudioDuration,
		Transcripts:        transcripts,
		Status:             s.Status,
		ErrorMessage:       s.ErrorMessage,
	}
}

// Snapshot is an immutable view of a Session.
type Snapshot struct {
	ID                 string       `json:"id"`
	StartTime          time.Time    `json:"start_time"`
	EndTime            *time.Time   `json:"end_time,omitempty"`
	TotalAudioDuration float64      `json:"total_audio_duration"`
	Transcripts        []Transcript `json:"transcripts"`
	Status             string       `json:"status"`
	ErrorMessage       string       `json:"error_message,omitempty"`
}

// reset reactivates a terminal session for a reconnecting client.
// Transcripts are kept for historical reference.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status == StatusCompleted || s.Status == StatusError {
		s.Status = StatusActive
		s.EndTime = nil
		s.ErrorMessage = ""
		s.TotalAudioDuration = 0
	}
}
