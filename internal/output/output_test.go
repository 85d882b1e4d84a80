package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	c := NewConsoleOutput(ConsoleConfig{Writer: &out, ErrWriter: &errOut})

	c.Say("Goodbye!")
	c.Reply("blacknox", "Will do, sir.")
	c.Info("Speech mode activated")
	c.Error("microphone unavailable")

	assert.Equal(t, "Goodbye!\nblacknox: Will do, sir.\n[INFO] Speech mode activated\n", out.String())
	assert.Equal(t, "[ERROR] microphone unavailable\n", errOut.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, f.WriteTurn(Turn{Index: 1, Mode: "text", Utterance: "call me Sam", Response: "Alright, Sam it is.", Rule: "call_me", Timestamp: ts}))
	require.NoError(t, f.WriteEvent("mode", "speech"))
	assert.Equal(t, 1, f.Turns())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var turn Turn
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &turn))
	assert.Equal(t, "call_me", turn.Rule)
	assert.Equal(t, "Alright, Sam it is.", turn.Response)
	assert.True(t, ts.Equal(turn.Timestamp))

	var event Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &event))
	assert.Equal(t, "mode", event.Type)
}

func TestPlainTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewPlainTextFormatter(&buf)

	ts := time.Date(2026, 1, 2, 21, 30, 0, 0, time.Local)
	require.NoError(t, f.WriteTurn(Turn{Index: 2, Mode: "speech", Utterance: "what's my name", Response: "Sam", Timestamp: ts}))

	assert.Equal(t, "[21:30:00] #2 (speech) You: what's my name\n[21:30:00] #2 (speech) blacknox: Sam\n", buf.String())
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter("text", &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &PlainTextFormatter{}, f)

	f, err = NewFormatter("", &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	_, err = NewFormatter("xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestOpenTranscript(t *testing.T) {
	f, err := OpenTranscript("", "json")
	require.NoError(t, err)
	assert.Equal(t, NopFormatter{}, f)

	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	for i := 1; i <= 2; i++ {
		f, err = OpenTranscript(path, "json")
		require.NoError(t, err)
		require.NoError(t, f.WriteTurn(Turn{Index: i, Mode: "text", Utterance: "hi", Response: "Good day."}))
		require.NoError(t, f.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"), "transcript is appended across sessions")
}
