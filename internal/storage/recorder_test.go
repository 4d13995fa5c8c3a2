package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prasetya/voicerelay/internal/session"
)

func TestRecorderFlushWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(dir, "sess-1", 16000, zap.NewNop())

	rec.Record([]byte{1, 2, 3, 4})
	rec.Record([]byte{5, 6})
	assert.Equal(t, 6, rec.Captured())

	snap := session.Snapshot{
		ID: "sess-1",
		Transcripts: []session.Transcript{
			{Text: "hello", Start: 0, End: 1.2, Timestamp: time.Now()},
			{Text: "world", Start: 1.5, End: 2.0, Timestamp: time.Now()},
		},
	}
	rec.Flush(snap)

	wav, err := os.ReadFile(filepath.Join(dir, "sess-1", AudioFileName))
	require.NoError(t, err)
	require.Len(t, wav, 44+6)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, wav[44:])

	f, err := os.Open(filepath.Join(dir, "sess-1", TranscriptFileName))
	require.NoError(t, err)
	defer f.Close()

	var texts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var tr session.Transcript
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &tr))
		texts = append(texts, tr.Text)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"hello", "world"}, texts)
}

func TestRecorderFlushEmptySessionWritesNothing(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(dir, "sess-2", 16000, zap.NewNop())

	rec.Flush(session.Snapshot{ID: "sess-2"})

	_, err := os.Stat(filepath.Join(dir, "sess-2", AudioFileName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "sess-2", TranscriptFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestRecorderFlushNeverPanicsOnBadDir(t *testing.T) {
	// Point the recorder at a path that cannot be created.
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	rec := NewRecorder(file, "sess-3", 16000, zap.NewNop())
	rec.Record([]byte{1, 2})

	assert.NotPanics(t, func() { rec.Flush(session.Snapshot{ID: "sess-3"}) })
}
