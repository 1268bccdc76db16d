package logging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_JSONFieldNames(t *testing.T) {
	event := &Event{
		Timestamp: time.Date(2026, 10, 16, 9, 30, 0, 123000000, time.UTC),
		RunID:     "run-9f8e7d6c",
		EventType: EventActionLaunch,
		Summary:   "run Build All",
	}
	b, err := json.Marshal(event)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))

	assert.Contains(t, m, "ts")
	assert.Contains(t, m, "run_id")
	assert.Contains(t, m, "event_type")
	assert.Contains(t, m, "summary")
	assert.NotContains(t, m, "family")
	assert.NotContains(t, m, "component")
	assert.NotContains(t, m, "tags")
	assert.NotContains(t, m, "data")
}

func TestEvent_OmitemptyPresent(t *testing.T) {
	event := &Event{
		Timestamp: time.Now().UTC(),
		RunID:     "test",
		Family:    "linux",
		EventType: EventConfigApplied,
		Summary:   "apply config",
		Component: "config",
		Tags:      []string{"workspace"},
		Data:      json.RawMessage(`{"path":"/repo/fonline.json"}`),
	}
	b, err := json.Marshal(event)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))

	assert.Equal(t, "linux", m["family"])
	assert.Equal(t, "config", m["component"])
	assert.Contains(t, m, "tags")
	assert.Contains(t, m, "data")
}

func TestEvent_TimestampFormat(t *testing.T) {
	ts := time.Date(2026, 10, 16, 9, 30, 0, 123456789, time.UTC)
	event := &Event{Timestamp: ts, RunID: "r", EventType: "t", Summary: "s"}

	b, err := json.Marshal(event)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	parsed, err := time.Parse(time.RFC3339Nano, m["ts"].(string))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}

func TestActionExitData_ZeroCodeNotOmitted(t *testing.T) {
	b, err := json.Marshal(&ActionExitData{Label: "Build", ExitCode: 0})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "exit_code", "a successful exit must still be recorded")
	assert.Equal(t, float64(0), m["exit_code"])
}
