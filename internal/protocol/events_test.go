package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventBegin(t *testing.T) {
	data := []byte(`{"type":"Begin","id":"sess-1","expires_at":"2026-01-02T15:04:05Z"}`)

	ev, err := ParseEvent(data)
	require.NoError(t, err)

	begin, ok := ev.(*BeginEvent)
	require.True(t, ok)
	assert.Equal(t, "sess-1", begin.ID)
	assert.Equal(t, 2026, begin.ExpiresAt.Year())
}

func TestParseEventTurn(t *testing.T) {
	data := []byte(`{
		"type": "Turn",
		"turn_order": 3,
		"transcript": "Hello world.",
		"turn_is_formatted": true,
		"end_of_turn": true,
		"words": [
			{"start": 120, "end": 480, "text": "Hello", "confidence": 0.98},
			{"start": 520, "end": 900, "text": "world.", "confidence": 0.95}
		]
	}`)

	ev, err := ParseEvent(data)
	require.NoError(t, err)

	turn, ok := ev.(*TurnEvent)
	require.True(t, ok)
	assert.Equal(t, 3, turn.TurnOrder)
	assert.Equal(t, "Hello world.", turn.Transcript)
	assert.True(t, turn.TurnIsFormatted)
	require.Len(t, turn.Words, 2)
	assert.Equal(t, 120.0, turn.Words[0].Start)
	assert.Equal(t, 900.0, turn.Words[1].End)
}

func TestParseEventTermination(t *testing.T) {
	data := []byte(`{"type":"Termination","audio_duration_seconds":12.5,"session_duration_seconds":13.1}`)

	ev, err := ParseEvent(data)
	require.NoError(t, err)

	term, ok := ev.(*TerminationEvent)
	require.True(t, ok)
	assert.Equal(t, 12.5, term.AudioDurationSeconds)
	assert.Equal(t, 13.1, term.SessionDurationSeconds)
}

func TestParseEventError(t *testing.T) {
	data := []byte(`{"type":"Error","error_code":"1008","error_message":"sample rate mismatch"}`)

	ev, err := ParseEvent(data)
	require.NoError(t, err)

	errEv, ok := ev.(*ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "1008", errEv.ErrorCode)
	assert.Equal(t, "sample rate mismatch", errEv.ErrorMessage)
}

func TestParseEventUnknownType(t *testing.T) {
	data := []byte(`{"type":"SomethingNew","payload":1}`)

	ev, err := ParseEvent(data)
	require.NoError(t, err)

	raw, ok := ev.(*RawEvent)
	require.True(t, ok)
	assert.Equal(t, "SomethingNew", raw.Type)
	assert.Equal(t, data, raw.Data)
}

func TestParseEventMalformed(t *testing.T) {
	_, err := ParseEvent([]byte(`{not json`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`{"transcript":"no type"}`))
	assert.Error(t, err)
}
