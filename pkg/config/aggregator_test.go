package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fonline/fodev/pkg/logging"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func labels(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Label)
	}
	return out
}

func TestAggregatorPrependsLaterDocuments(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a", "fonline.json")
	second := filepath.Join(dir, "b", "fonline.json")
	writeFile(t, first, `{"content": [{"label": "A1", "path": "x"}, {"label": "A2", "path": "y"}]}`)
	writeFile(t, second, `{"content": [{"label": "B1", "path": "x"}, {"label": "B2", "path": "y"}]}`)

	agg := NewAggregator()
	applied, err := agg.Apply(first)
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = agg.Apply(second)
	require.NoError(t, err)
	assert.True(t, applied)

	assert.Equal(t, []string{"B1", "B2", "A1", "A2"}, labels(agg.Content()))
	assert.Equal(t, []string{first, second}, agg.Documents())
}

func TestAggregatorAppliesOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fonline.json")
	writeFile(t, path, `{"resources": [{"label": "R", "path": "r"}]}`)

	agg := NewAggregator()
	applied, err := agg.Apply(path)
	require.NoError(t, err)
	require.True(t, applied)

	// Same file through a different spelling of the path.
	applied, err = agg.Apply(filepath.Join(dir, ".", "fonline.json"))
	require.NoError(t, err)
	assert.False(t, applied)

	assert.Len(t, agg.Resources(), 1)
}

func TestAggregatorAppliesOnceThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fonline.json")
	writeFile(t, path, `{"content": [{"label": "C", "path": "c"}]}`)
	link := filepath.Join(dir, "fonline-link.json")
	if err := os.Symlink(path, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	agg := NewAggregator()
	_, err := agg.Apply(path)
	require.NoError(t, err)
	applied, err := agg.Apply(link)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Len(t, agg.Content(), 1)
}

func TestAggregatorMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fonline.json")
	writeFile(t, path, `{"content": [`)

	agg := NewAggregator()
	applied, err := agg.Apply(path)
	assert.True(t, applied)
	assert.ErrorIs(t, err, ErrMalformedConfig)
	assert.Empty(t, agg.Content())
	assert.Empty(t, agg.Documents())

	applied, err = agg.Apply(path)
	assert.False(t, applied)
	assert.NoError(t, err)
}

func TestAggregatorMissingDocument(t *testing.T) {
	agg := NewAggregator()
	_, err := agg.Apply(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrReadConfig)
}

func TestDiscoverAndApplyAllOrder(t *testing.T) {
	dir := t.TempDir()
	engine := filepath.Join(dir, "engine")
	folder1 := filepath.Join(dir, "ws1")
	folder2 := filepath.Join(dir, "ws2")

	writeFile(t, filepath.Join(engine, "BuildTools", "fonline-editor.json"),
		`{"content": [{"label": "Engine", "path": "e"}]}`)
	writeFile(t, filepath.Join(folder1, "fonline.json"),
		`{"content": [{"label": "Shared", "path": "one"}]}`)
	writeFile(t, filepath.Join(folder2, "fonline-game.json"),
		`{"content": [{"label": "Shared", "path": "two"}]}`)
	writeFile(t, filepath.Join(folder2, "other.json"),
		`{"content": [{"label": "Ignored", "path": "x"}]}`)
	require.NoError(t, os.MkdirAll(filepath.Join(folder2, "fonline-dir.json"), 0755))

	agg := NewAggregator()
	err := agg.DiscoverAndApplyAll(context.Background(), Roots{EnginePath: engine}, []string{folder1, folder2}, "")
	require.NoError(t, err)

	content := agg.Content()
	require.Len(t, content, 3)
	assert.Equal(t, filepath.Join(folder2, "two"), content[0].Path)
	assert.Equal(t, filepath.Join(folder1, "one"), content[1].Path)
	assert.Equal(t, "Engine", content[2].Label)
}

func TestDiscoverAndApplyAllKeepsGoing(t *testing.T) {
	dir := t.TempDir()
	folder := filepath.Join(dir, "ws")
	writeFile(t, filepath.Join(folder, "fonline-a.json"), `not json`)
	writeFile(t, filepath.Join(folder, "fonline-b.json"), `{"actions": [{"label": "B", "group": "G", "command": "b", "env": []}]}`)

	agg := NewAggregator()
	err := agg.DiscoverAndApplyAll(context.Background(), Roots{EnginePath: filepath.Join(dir, "engine")},
		[]string{folder, filepath.Join(dir, "missing")}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedConfig)
	assert.ErrorIs(t, err, ErrScanFolder)

	require.Len(t, agg.Actions(), 1)
	assert.Equal(t, "B", agg.Actions()[0].Label)
	assert.Len(t, agg.Problems(), 2)
}

func TestDiscoverAndApplyAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	agg := NewAggregator()
	err := agg.DiscoverAndApplyAll(ctx, Roots{EnginePath: t.TempDir()}, []string{t.TempDir()}, "")
	assert.ErrorIs(t, err, context.Canceled)
}

type captureSink struct {
	events []*logging.Event
}

func (s *captureSink) Write(e *logging.Event) error {
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) Close() error { return nil }

func TestAggregatorEmitsConfigApplied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fonline.json")
	writeFile(t, path, `{"content": [{"label": "C", "path": "c"}], "actions": []}`)

	sink := &captureSink{}
	agg := NewAggregator(WithAggregatorEmitter(logging.NewEmitter(logging.EmitterConfig{RunID: "r"}, sink)))
	_, err := agg.Apply(path)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Equal(t, logging.EventConfigApplied, sink.events[0].EventType)
	var data logging.ConfigAppliedData
	require.NoError(t, json.Unmarshal(sink.events[0].Data, &data))
	assert.Equal(t, logging.ConfigAppliedData{Path: path, Content: 1}, data)
}
