// Package action turns configured action entries into invocable commands
// filtered for the detected environment.
package action

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/config"
	"github.com/fonline/fodev/pkg/explorer"
	"github.com/fonline/fodev/pkg/launcher"
	"github.com/fonline/fodev/pkg/logging"
)

// Starter launches a named process unless one with that name is live.
// *launcher.Launcher implements it.
type Starter interface {
	StartUnique(ctx context.Context, spec launcher.Spec) (*launcher.Handle, error)
}

// Options control how actions are expanded and launched.
type Options struct {
	// Hold appends a "press enter" pause so the terminal stays open.
	Hold bool
	// InstallPackages false exports FO_INSTALL_PACKAGES=0.
	InstallPackages bool
	// Terminal runs actions under a pseudo-terminal when possible.
	Terminal bool

	BashPath       string
	WSLPath        string
	PowerShellPath string

	Starter Starter
	Logger  *slog.Logger
	Emitter *logging.Emitter
}

func (o Options) shell(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// Resolved is an action ready to launch.
type Resolved struct {
	Label     string
	Group     string
	CommandID string
	ShellPath string
	ShellArgs []string
	Dir       string
	Env       map[string]string
	Tags      []string
	Source    string
}

// Spec is the launch description of the action. The label keys the live
// table, so one label runs at most once at a time.
func (r Resolved) Spec(terminal bool) launcher.Spec {
	return launcher.Spec{
		Name:      r.Label,
		ShellPath: r.ShellPath,
		ShellArgs: append([]string(nil), r.ShellArgs...),
		Dir:       r.Dir,
		Env:       r.Env,
		Terminal:  terminal,
	}
}

// Group is a named, ordered set of actions.
type Group struct {
	Name    string
	Actions []Resolved
}

// Registry holds the actions offered in this environment.
type Registry struct {
	groups  []Group
	byID    map[string]Resolved
	aliases map[string]string
	opts    Options
	logger  *slog.Logger
}

// Build filters rc's action entries for its environment and resolves each
// survivor. Incomplete entries are dropped before grouping, so no group is
// ever empty. Groups keep first-seen order; when two labels map to the same
// command id the later one wins.
func Build(rc *config.ResolvedContext, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		byID:    make(map[string]Resolved),
		aliases: make(map[string]string),
		opts:    opts,
		logger:  logger.With("component", "actions"),
	}

	env := rc.Env()
	roots := rc.Roots()
	groupIndex := make(map[string]int)

	for _, entry := range rc.Actions() {
		if !entry.Complete() {
			r.logger.Debug("skip incomplete action", "label", entry.Label, "source", entry.Source)
			continue
		}
		if !Available(entry.Env, env) {
			r.logger.Debug("skip unavailable action", "label", entry.Label, "env", entry.Env)
			continue
		}

		inv := expand(entry.Command, entry.Env, env, roots, opts)
		resolved := Resolved{
			Label:     entry.Label,
			Group:     entry.Group,
			CommandID: CommandID(entry.Label),
			ShellPath: inv.shell,
			ShellArgs: inv.args,
			Dir:       roots.EnginePath,
			Env:       environment(roots, opts),
			Tags:      append([]string(nil), entry.Env...),
			Source:    entry.Source,
		}

		if prev, ok := r.byID[resolved.CommandID]; ok {
			r.logger.Warn("action id collision", "id", resolved.CommandID, "previous", prev.Label, "label", resolved.Label)
			r.remove(prev)
		}
		r.byID[resolved.CommandID] = resolved
		for _, alias := range aliases(resolved.Label, resolved.CommandID) {
			r.aliases[alias] = resolved.CommandID
		}

		idx, ok := groupIndex[entry.Group]
		if !ok {
			idx = len(r.groups)
			groupIndex[entry.Group] = idx
			r.groups = append(r.groups, Group{Name: entry.Group})
		}
		r.groups[idx].Actions = append(r.groups[idx].Actions, resolved)

		r.logger.Info("register", "label", resolved.Label, "id", resolved.CommandID)
		_ = opts.Emitter.Emit(logging.EventActionRegistered, "register "+resolved.Label, "actions", resolved.Tags, actionData(resolved))
	}

	r.dropEmptyGroups()
	return r
}

// remove drops a superseded action from its group.
func (r *Registry) remove(prev Resolved) {
	for gi := range r.groups {
		if r.groups[gi].Name != prev.Group {
			continue
		}
		actions := r.groups[gi].Actions[:0]
		for _, a := range r.groups[gi].Actions {
			if a.CommandID != prev.CommandID {
				actions = append(actions, a)
			}
		}
		r.groups[gi].Actions = actions
	}
}

func (r *Registry) dropEmptyGroups() {
	groups := r.groups[:0]
	for _, g := range r.groups {
		if len(g.Actions) > 0 {
			groups = append(groups, g)
		}
	}
	r.groups = groups
}

// Groups returns the action groups in first-seen order.
func (r *Registry) Groups() []Group {
	out := make([]Group, len(r.groups))
	for i, g := range r.groups {
		out[i] = Group{Name: g.Name, Actions: append([]Resolved(nil), g.Actions...)}
	}
	return out
}

// Actions returns every registered action in group order.
func (r *Registry) Actions() []Resolved {
	var out []Resolved
	for _, g := range r.groups {
		out = append(out, g.Actions...)
	}
	return out
}

func (r *Registry) Len() int { return len(r.byID) }

// Lookup finds an action by command id, by label, by the id without its
// prefix, or by the kebab-case form of the label.
func (r *Registry) Lookup(name string) (Resolved, bool) {
	if a, ok := r.byID[name]; ok {
		return a, true
	}
	if id, ok := r.aliases[name]; ok {
		a, ok := r.byID[id]
		return a, ok
	}
	return Resolved{}, false
}

// Invoke launches the named action. When the action is already running the
// call does nothing and returns a nil handle and a nil error.
func (r *Registry) Invoke(ctx context.Context, name string) (*launcher.Handle, error) {
	a, ok := r.Lookup(name)
	if !ok {
		return nil, errx.With(ErrUnknownAction, ": %s", name)
	}
	if r.opts.Starter == nil {
		return nil, ErrNoLauncher
	}

	h, err := r.opts.Starter.StartUnique(ctx, a.Spec(r.opts.Terminal))
	if errors.Is(err, launcher.ErrAlreadyRunning) {
		r.logger.Info("skip run", "id", a.CommandID)
		_ = r.opts.Emitter.Emit(logging.EventActionSkip, "skip "+a.Label, "actions", a.Tags, actionData(a))
		return nil, nil
	}
	if err != nil {
		return nil, errx.Wrap(ErrLaunch, err)
	}

	r.logger.Info("run", "id", a.CommandID, "cwd", a.Dir)
	_ = r.opts.Emitter.Emit(logging.EventActionLaunch, "run "+a.Label, "actions", a.Tags, actionData(a))
	return h, nil
}

// Tree exposes the groups as a browsable tree. Group nodes hold action nodes
// whose command is the action id.
func (r *Registry) Tree() *explorer.Tree {
	roots := make([]*explorer.Node, 0, len(r.groups))
	for _, g := range r.groups {
		group := &explorer.Node{Label: g.Name}
		for _, a := range g.Actions {
			group.Children = append(group.Children, &explorer.Node{
				Label:   a.Label,
				Command: a.CommandID,
				Tooltip: "Run " + a.Label,
			})
		}
		roots = append(roots, group)
	}
	return explorer.NewTree(roots)
}

func actionData(a Resolved) *logging.ActionData {
	return &logging.ActionData{
		Label:     a.Label,
		Group:     a.Group,
		CommandID: a.CommandID,
		ShellPath: a.ShellPath,
		ShellArgs: a.ShellArgs,
		Dir:       a.Dir,
	}
}
