package protocol

import (
	"encoding/json"
	"fmt"
)

// Client control message types, sent by the browser as text frames.
const (
	ClientTerminate     = "terminate"
	ClientForceEndpoint = "force_endpoint"
	ClientUpdateConfig  = "update_configuration"
)

// ClientControl is a JSON control event from the browser. Binary frames
// carry audio; text frames carry one of these.
type ClientControl struct {
	Type                string   `json:"type"`
	EndOfTurnConfidence *float64 `json:"end_of_turn_confidence_threshold,omitempty"`
	MinEndOfTurnSilence *int     `json:"min_end_of_turn_silence_when_confident,omitempty"`
	MaxTurnSilence      *int     `json:"max_turn_silence,omitempty"`
	KeyTerms            []string `json:"keyterms_prompt,omitempty"`
}

// ParseClientControl decodes a browser text frame.
func ParseClientControl(data []byte) (*ClientControl, error) {
	var ctl ClientControl
	if err := json.Unmarshal(data, &ctl); err != nil {
		return nil, fmt.Errorf("parse client control: %w", err)
	}
	switch ctl.Type {
	case ClientTerminate, ClientForceEndpoint, ClientUpdateConfig:
		return &ctl, nil
	default:
		return nil, fmt.Errorf("unknown client control type %q", ctl.Type)
	}
}

// UpstreamCommand translates a browser control event into the JSON command
// the upstream API expects.
func (c *ClientControl) UpstreamCommand() (any, error) {
	switch c.Type {
	case ClientTerminate:
		return &TerminateCommand{Type: TypeTerminate}, nil
	case ClientForceEndpoint:
		return &ForceEndpointCommand{Type: TypeForceEndpoint}, nil
	case ClientUpdateConfig:
		return &UpdateConfigCommand{
			Type:                TypeUpdateConfig,
			EndOfTurnConfidence: c.EndOfTurnConfidence,
			MinEndOfTurnSilence: c.MinEndOfTurnSilence,
			MaxTurnSilence:      c.MaxTurnSilence,
			KeyTerms:            c.KeyTerms,
		}, nil
	default:
		return nil, fmt.Errorf("no upstream command for control type %q", c.Type)
	}
}

// TranscriptPayload is the simplified transcript JSON the relay sends to
// the browser for each formatted turn.
type TranscriptPayload struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ErrorPayload notifies the browser of an upstream failure.
type ErrorPayload struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
