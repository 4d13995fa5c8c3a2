package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetOrCreate(t *testing.T) {
	st := NewStore()

	s := st.GetOrCreate("conn-1")
	require.NotNil(t, s)
	assert.Equal(t, "conn-1", s.ID)
	assert.Equal(t, StatusActive, s.Status)
	assert.Empty(t, s.Transcripts)

	assert.Same(t, s, st.GetOrCreate("conn-1"), "same id returns same session")
	assert.Equal(t, 1, st.Len())
}

func TestStoreGetMissing(t *testing.T) {
	st := NewStore()
	assert.Nil(t, st.Get("absent"))
}

func TestSessionResumeKeepsTranscripts(t *testing.T) {
	st := NewStore()

	s := st.GetOrCreate("conn-1")
	s.AppendTranscript(Transcript{Text: "hello there", Start: 0, End: 1.5, Timestamp: time.Now()})
	s.Complete(1.5)

	snap := s.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	require.NotNil(t, snap.EndTime)

	resumed := st.GetOrCreate("conn-1")
	require.Same(t, s, resumed)

	snap = resumed.Snapshot()
	assert.Equal(t, StatusActive, snap.Status)
	assert.Nil(t, snap.EndTime)
	assert.Zero(t, snap.TotalAudioDuration)
	assert.Len(t, snap.Transcripts, 1, "transcripts survive a resume")
}

func TestSessionFailThenResume(t *testing.T) {
	st := NewStore()

	s := st.GetOrCreate("conn-1")
	s.Fail("code=1008 message=bad audio")

	snap := s.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "code=1008 message=bad audio", snap.ErrorMessage)

	resumed := st.GetOrCreate("conn-1")
	snap = resumed.Snapshot()
	assert.Equal(t, StatusActive, snap.Status)
	assert.Empty(t, snap.ErrorMessage)
}

func TestCompleteIsTerminal(t *testing.T) {
	s := NewStore().GetOrCreate("conn-1")

	s.Fail("upstream exploded")
	s.Complete(42)

	snap := s.Snapshot()
	assert.Equal(t, StatusError, snap.Status, "Complete must not overwrite an error")
	assert.Zero(t, snap.TotalAudioDuration)
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewStore().GetOrCreate("conn-1")
	s.AppendTranscript(Transcript{Text: "one"})

	snap := s.Snapshot()
	s.AppendTranscript(Transcript{Text: "two"})

	assert.Len(t, snap.Transcripts, 1, "snapshot must not see later appends")
}
