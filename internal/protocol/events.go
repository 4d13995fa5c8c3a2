// Package protocol defines the wire messages exchanged with the upstream
// realtime speech API and with browser clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Upstream event type strings.
const (
	TypeBegin       = "Begin"
	TypeTurn        = "Turn"
	TypeTermination = "Termination"
	TypeError       = "Error"
)

// Upstream command type strings.
const (
	TypeTerminate     = "Terminate"
	TypeForceEndpoint = "ForceEndpoint"
	TypeUpdateConfig  = "UpdateConfiguration"
)

// BeginEvent is sent by the upstream API when a session opens.
type BeginEvent struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TurnEvent carries a transcript for one conversational turn. The same
// turn is delivered repeatedly as it grows; TurnIsFormatted marks the
// final, punctuated rendition.
type TurnEvent struct {
	Type            string  `json:"type"`
	TurnOrder       int     `json:"turn_order"`
	Transcript      string  `json:"transcript"`
	TurnIsFormatted bool    `json:"turn_is_formatted"`
	EndOfTurn       bool    `json:"end_of_turn"`
	Words           []Word  `json:"words,omitempty"`
	Confidence      float64 `json:"end_of_turn_confidence,omitempty"`
}

// Word is a single recognized word with millisecond offsets.
type Word struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

// TerminationEvent closes a session from the upstream side.
type TerminationEvent struct {
	Type                   string  `json:"type"`
	AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
}

// ErrorEvent reports an upstream failure. The upstream closes the socket
// after sending one.
type ErrorEvent struct {
	Type         string `json:"type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// TerminateCommand asks the upstream API to finalize and close the session.
type TerminateCommand struct {
	Type string `json:"type"`
}

// ForceEndpointCommand asks the upstream API to close the current turn
// immediately instead of waiting for silence.
type ForceEndpointCommand struct {
	Type string `json:"type"`
}

// UpdateConfigCommand adjusts session parameters mid-stream.
type UpdateConfigCommand struct {
	Type                string   `json:"type"`
	EndOfTurnConfidence *float64 `json:"end_of_turn_confidence_threshold,omitempty"`
	MinEndOfTurnSilence *int     `json:"min_end_of_turn_silence_when_confident,omitempty"`
	MaxTurnSilence      *int     `json:"max_turn_silence,omitempty"`
	KeyTerms            []string `json:"keyterms_prompt,omitempty"`
}

// ParseEvent decodes an upstream JSON frame into one of the typed events
// above. Unknown types come back as *RawEvent rather than an error so the
// relay can log and continue.
func ParseEvent(data []byte) (any, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse event envelope: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("event missing type field")
	}

	switch head.Type {
	case TypeBegin:
		ev := &BeginEvent{}
		if err := json.Unmarshal(data, ev); err != nil {
			return nil, fmt.Errorf("parse %s event: %w", head.Type, err)
		}
		return ev, nil
	case TypeTurn:
		ev := &TurnEvent{}
		if err := json.Unmarshal(data, ev); err != nil {
			return nil, fmt.Errorf("parse %s event: %w", head.Type, err)
		}
		return ev, nil
	case TypeTermination:
		ev := &TerminationEvent{}
		if err := json.Unmarshal(data, ev); err != nil {
			return nil, fmt.Errorf("parse %s event: %w", head.Type, err)
		}
		return ev, nil
	case TypeError:
		ev := &ErrorEvent{}
		if err := json.Unmarshal(data, ev); err != nil {
			return nil, fmt.Errorf("parse %s event: %w", head.Type, err)
		}
		return ev, nil
	default:
		return &RawEvent{Type: head.Type, Data: data}, nil
	}
}

// RawEvent wraps an upstream frame whose type the relay does not handle.
type RawEvent struct {
	Type string
	Data []byte
}
