package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLWriterAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	for _, summary := range []string{"run Build All", "run Prepare Workspace"} {
		w, err := NewJSONLWriter(path)
		require.NoError(t, err)
		require.NoError(t, w.Write(launchEvent(summary)))
		require.NoError(t, w.Close())
	}

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	var second Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "run Prepare Workspace", second.Summary)
	assert.Equal(t, EventActionLaunch, second.EventType)
}

func TestJSONLWriterCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "fodev", "events.jsonl")
	w, err := NewJSONLWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(launchEvent("nested")))
	require.NoError(t, w.Close())

	assert.Len(t, readLines(t, path), 1)
}

func TestJSONLWriterParentIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewJSONLWriter(filepath.Join(blocker, "events.jsonl"))
	assert.ErrorIs(t, err, ErrCreateLogFile)
}

func TestJSONLWriterWriteAfterClose(t *testing.T) {
	w, err := NewJSONLWriter(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Write(launchEvent("late")), ErrWriteEvent)
}

func TestStreamWriterKeepsDataTyped(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)
	e := NewEmitter(EmitterConfig{RunID: "r1", Family: "linux"}, w)

	require.NoError(t, e.Emit(EventActionExit, "Build All exited", "launcher", nil, &ActionExitData{
		Label:      "Build All",
		ExitCode:   2,
		DurationMS: 40,
	}))
	require.NoError(t, e.Close())

	var event Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "r1", event.RunID)
	assert.Equal(t, "linux", event.Family)

	var data ActionExitData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, 2, data.ExitCode)
	assert.Equal(t, "Build All", data.Label)
}

func TestStreamWriterConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)

	const writers, perWriter = 20, 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_ = w.Write(launchEvent("concurrent"))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, writers*perWriter)
	for i, line := range lines {
		var event Event
		assert.NoError(t, json.Unmarshal([]byte(line), &event), "line %d", i)
	}
}

func launchEvent(summary string) *Event {
	return &Event{
		Timestamp: time.Now().UTC(),
		RunID:     "test-run",
		EventType: EventActionLaunch,
		Summary:   summary,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	require.NoError(t, scanner.Err())
	return lines
}
