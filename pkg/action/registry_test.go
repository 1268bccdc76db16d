package action

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/config"
	"github.com/fonline/fodev/pkg/explorer"
	"github.com/fonline/fodev/pkg/hostenv"
	"github.com/fonline/fodev/pkg/launcher"
	"github.com/fonline/fodev/pkg/logging"
)

var repoRoots = config.Roots{
	EnginePath:       "/repo",
	WorkspacePath:    "/repo/Workspace",
	ContributionPath: "/repo/Contribution.cmake",
}

// contextFor applies one document holding doc and wraps it for env.
func contextFor(t *testing.T, doc string, env hostenv.Env) *config.ResolvedContext {
	t.Helper()
	path := filepath.Join(t.TempDir(), "BuildTools", "cfg.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	agg := config.NewAggregator()
	_, err := agg.Apply(path)
	require.NoError(t, err)
	return config.NewResolvedContext(repoRoots, env, agg)
}

const buildAllDoc = `{"actions": [{"label": "Build All", "group": "Build", "command": "./build.sh", "env": ["linux"]}]}`

func TestBuildLinux(t *testing.T) {
	reg := Build(contextFor(t, buildAllDoc, hostenv.Env{Family: hostenv.Linux}), Options{InstallPackages: true})

	groups := reg.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "Build", groups[0].Name)
	require.Len(t, groups[0].Actions, 1)

	a := groups[0].Actions[0]
	assert.Equal(t, CommandPrefix+"buildAll", a.CommandID)
	assert.Equal(t, "/repo", a.Dir)
	args := strings.Join(a.ShellArgs, " ")
	assert.Contains(t, args, "FO_ROOT=")
	assert.True(t, strings.HasSuffix(args, "./build.sh"))
	assert.Equal(t, "/repo", a.Env[EnvRoot])
}

func TestBuildMacFiltersLinuxOnly(t *testing.T) {
	reg := Build(contextFor(t, buildAllDoc, hostenv.Env{Family: hostenv.Mac}), Options{})
	assert.Empty(t, reg.Groups())
	assert.Empty(t, reg.Actions())
	assert.Zero(t, reg.Len())
}

func TestBuildDropsIncompleteEntries(t *testing.T) {
	doc := `{"actions": [
		{"label": "No Command", "group": "Lonely", "env": ["linux"]},
		{"label": "No Env", "group": "Build", "command": "x"},
		{"group": "Build", "command": "x", "env": ["linux"]},
		{"label": "Ok", "group": "Build", "command": "ok", "env": ["linux"]}
	]}`
	reg := Build(contextFor(t, doc, hostenv.Env{Family: hostenv.Linux}), Options{})

	groups := reg.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "Build", groups[0].Name)
	assert.Equal(t, "Ok", groups[0].Actions[0].Label)
}

func TestBuildGroupOrderAndCollision(t *testing.T) {
	doc := `{"actions": [
		{"label": "Prepare Workspace", "group": "Setup", "command": "first", "env": ["linux"]},
		{"label": "Build Client", "group": "Build", "command": "client", "env": ["linux"]},
		{"label": "Build Server", "group": "Build", "command": "server", "env": ["linux"]},
		{"label": "PrepareWorkspace", "group": "Misc", "command": "second", "env": ["linux"]}
	]}`
	reg := Build(contextFor(t, doc, hostenv.Env{Family: hostenv.Linux}), Options{})

	var names []string
	for _, g := range reg.Groups() {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Build", "Misc"}, names)
	assert.Equal(t, 3, reg.Len())

	a, ok := reg.Lookup(CommandPrefix + "prepareWorkspace")
	require.True(t, ok)
	assert.Equal(t, "PrepareWorkspace", a.Label)
	assert.True(t, strings.HasSuffix(a.ShellArgs[1], "second"))
}

func TestLookupAliases(t *testing.T) {
	reg := Build(contextFor(t, buildAllDoc, hostenv.Env{Family: hostenv.Linux}), Options{})

	for _, name := range []string{"fonline.buildAll", "Build All", "buildAll", "build-all"} {
		a, ok := reg.Lookup(name)
		assert.True(t, ok, name)
		assert.Equal(t, "Build All", a.Label, name)
	}
	_, ok := reg.Lookup("nope")
	assert.False(t, ok)
}

type fakeStarter struct {
	mu      sync.Mutex
	live    map[string]bool
	started []launcher.Spec
	err     error
}

func (f *fakeStarter) StartUnique(_ context.Context, spec launcher.Spec) (*launcher.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.live[spec.Name] {
		return &launcher.Handle{}, errx.With(launcher.ErrAlreadyRunning, ": %s", spec.Name)
	}
	if f.live == nil {
		f.live = map[string]bool{}
	}
	f.live[spec.Name] = true
	f.started = append(f.started, spec)
	return &launcher.Handle{}, nil
}

type captureSink struct {
	events []*logging.Event
}

func (s *captureSink) Write(e *logging.Event) error {
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) Close() error { return nil }

func TestInvokeSkipsLiveAction(t *testing.T) {
	starter := &fakeStarter{}
	sink := &captureSink{}
	reg := Build(contextFor(t, buildAllDoc, hostenv.Env{Family: hostenv.Linux}), Options{
		Starter: starter,
		Emitter: logging.NewEmitter(logging.EmitterConfig{RunID: "run"}, sink),
	})

	h, err := reg.Invoke(context.Background(), "fonline.buildAll")
	require.NoError(t, err)
	assert.NotNil(t, h)

	h, err = reg.Invoke(context.Background(), "Build All")
	require.NoError(t, err)
	assert.Nil(t, h)

	require.Len(t, starter.started, 1)
	spec := starter.started[0]
	assert.Equal(t, "Build All", spec.Name)
	assert.Equal(t, "/repo", spec.Dir)
	assert.Equal(t, "bash", spec.ShellPath)

	var types []string
	for _, e := range sink.events {
		types = append(types, e.EventType)
	}
	assert.Equal(t, []string{
		logging.EventActionRegistered,
		logging.EventActionLaunch,
		logging.EventActionSkip,
	}, types)
}

func TestInvokeErrors(t *testing.T) {
	rc := contextFor(t, buildAllDoc, hostenv.Env{Family: hostenv.Linux})

	_, err := Build(rc, Options{Starter: &fakeStarter{}}).Invoke(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = Build(rc, Options{}).Invoke(context.Background(), "Build All")
	assert.ErrorIs(t, err, ErrNoLauncher)

	_, err = Build(rc, Options{Starter: &fakeStarter{err: launcher.ErrNoShell}}).Invoke(context.Background(), "Build All")
	assert.ErrorIs(t, err, ErrLaunch)
	assert.ErrorIs(t, err, launcher.ErrNoShell)
}

func TestInvokeWithLauncher(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	engine := t.TempDir()
	doc := filepath.Join(t.TempDir(), "fonline.json")
	require.NoError(t, os.WriteFile(doc,
		[]byte(`{"actions": [{"label": "Check", "group": "G", "command": "test \"$FO_ROOT\" = \"$(pwd)\"", "env": ["linux"]}]}`), 0644))

	agg := config.NewAggregator()
	_, err := agg.Apply(doc)
	require.NoError(t, err)
	rc := config.NewResolvedContext(config.Roots{EnginePath: engine, WorkspacePath: engine, ContributionPath: engine},
		hostenv.Env{Family: hostenv.Linux}, agg)

	reg := Build(rc, Options{BashPath: "sh", Starter: launcher.New()})
	h, err := reg.Invoke(context.Background(), "check")
	require.NoError(t, err)
	require.NotNil(t, h)
	code, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestTree(t *testing.T) {
	doc := `{"actions": [
		{"label": "Build All", "group": "Build", "command": "a", "env": ["linux"]},
		{"label": "Run Server", "group": "Run", "command": "b", "env": ["linux"]}
	]}`
	tree := Build(contextFor(t, doc, hostenv.Env{Family: hostenv.Linux}), Options{}).Tree()

	roots := tree.Children(nil)
	require.Len(t, roots, 2)
	assert.Equal(t, "Build", roots[0].Label)
	assert.True(t, tree.Display(roots[0]).Collapsible)

	leaf := tree.Display(roots[0].Children[0])
	assert.Equal(t, "fonline.buildAll", leaf.Command)
	assert.Equal(t, "Run Build All", leaf.Tooltip)

	var _ explorer.Source = tree
}
