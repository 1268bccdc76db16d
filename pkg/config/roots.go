package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/logging"
	"github.com/fonline/fodev/pkg/settings"
)

// Roots are the three absolute locations every action runs against.
type Roots struct {
	EnginePath       string
	WorkspacePath    string
	ContributionPath string

	// EngineSetting is the engine path as the user wrote it, before joining.
	// It is empty when the engine was found by probing.
	EngineSetting string
}

// Field names one of the roots a prompt can supply.
type Field int

const (
	FieldEngine Field = iota
	FieldWorkspace
	FieldContribution
)

func (f Field) String() string {
	switch f {
	case FieldEngine:
		return "engine path"
	case FieldWorkspace:
		return "workspace path"
	case FieldContribution:
		return "cmake contribution"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Key is the settings key the field is read from and persisted to.
func (f Field) Key() string {
	switch f {
	case FieldEngine:
		return settings.KeyPath
	case FieldWorkspace:
		return settings.KeyWorkspace
	case FieldContribution:
		return settings.KeyCMakeContribution
	default:
		return ""
	}
}

// State is the resolver's position in Unresolved -> Prompting -> Validated.
type State int

const (
	StateUnresolved State = iota
	StatePrompting
	StateValidated
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StatePrompting:
		return "prompting"
	case StateValidated:
		return "validated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Settings is the read side of the host configuration store. An empty folder
// addresses the global scope.
type Settings interface {
	Get(folder, key string) string
}

// Persister stores an answer so the next run does not ask again.
type Persister interface {
	Persist(folder, key, value string) error
}

// Prompter asks the operator for a replacement value for field. reason is the
// failure that triggered the prompt. ok is false when the operator dismissed
// the prompt without answering.
type Prompter interface {
	Prompt(ctx context.Context, field Field, reason error) (value string, ok bool, err error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, field Field, reason error) (string, bool, error)

func (f PrompterFunc) Prompt(ctx context.Context, field Field, reason error) (string, bool, error) {
	return f(ctx, field, reason)
}

// EnginePathEnv is consulted after the settings scopes.
const EnginePathEnv = "FONLINE_PATH"

// DefaultMaxAttempts bounds how many prompts Resolve issues.
const DefaultMaxAttempts = 5

// Resolver produces Roots from settings, the environment and operator answers.
type Resolver struct {
	settings    Settings
	folders     []string
	prompter    Prompter
	persister   Persister
	maxAttempts int
	workDir     string
	getenv      func(string) string
	logger      *slog.Logger
	emitter     *logging.Emitter

	state   State
	answers map[Field]string
}

type ResolverOption func(*Resolver)

func WithPrompter(p Prompter) ResolverOption {
	return func(r *Resolver) { r.prompter = p }
}

// WithPersister stores prompt answers in the first workspace folder's scope.
func WithPersister(p Persister) ResolverOption {
	return func(r *Resolver) { r.persister = p }
}

// WithMaxAttempts sets the prompt budget. Zero means unbounded.
func WithMaxAttempts(n int) ResolverOption {
	return func(r *Resolver) { r.maxAttempts = n }
}

func WithWorkDir(dir string) ResolverOption {
	return func(r *Resolver) { r.workDir = dir }
}

func WithGetenv(getenv func(string) string) ResolverOption {
	return func(r *Resolver) { r.getenv = getenv }
}

func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

func WithResolverEmitter(emitter *logging.Emitter) ResolverOption {
	return func(r *Resolver) { r.emitter = emitter }
}

func NewResolver(s Settings, folders []string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		settings:    s,
		folders:     folders,
		maxAttempts: DefaultMaxAttempts,
		getenv:      os.Getenv,
		answers:     make(map[Field]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "roots")
	return r
}

func (r *Resolver) State() State { return r.state }

// Resolve returns validated roots exactly once. Every failed validation asks
// the prompter about the offending field; without a prompter the failure is
// returned as is.
func (r *Resolver) Resolve(ctx context.Context) (Roots, error) {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return Roots{}, err
		}

		r.state = StateUnresolved
		roots, field, reason := r.attempt()
		if reason == nil {
			r.state = StateValidated
			r.persistAnswers(roots)
			r.logger.Info("roots resolved",
				"engine", roots.EnginePath,
				"workspace", roots.WorkspacePath,
				"contribution", roots.ContributionPath)
			return roots, nil
		}
		r.logger.Warn("roots unresolved", "field", field.String(), "reason", reason)

		if r.prompter == nil {
			return Roots{}, reason
		}
		if r.maxAttempts > 0 && attempts >= r.maxAttempts {
			return Roots{}, errx.Wrap(ErrRootsAttemptsExhausted, reason)
		}
		attempts++

		r.state = StatePrompting
		_ = r.emitter.Emit(logging.EventRootsPrompt, "prompt for "+field.String(), "roots", nil, &logging.RootsPromptData{
			Field:   field.String(),
			Reason:  reason.Error(),
			Attempt: attempts,
		})
		value, ok, err := r.prompter.Prompt(ctx, field, reason)
		if err != nil {
			r.state = StateUnresolved
			return Roots{}, err
		}
		if !ok || value == "" {
			// Dismissed: candidates are re-read from settings on the next pass.
			delete(r.answers, field)
			continue
		}
		r.answers[field] = value
	}
}

// persistAnswers saves the answers that led to roots into the first folder's
// scope. Only validated values reach the settings file.
func (r *Resolver) persistAnswers(roots Roots) {
	if r.persister == nil || len(r.folders) == 0 {
		return
	}
	folder := r.folders[0]
	resolved := map[Field]string{
		FieldEngine:       roots.EnginePath,
		FieldWorkspace:    roots.WorkspacePath,
		FieldContribution: roots.ContributionPath,
	}
	for _, field := range []Field{FieldEngine, FieldWorkspace, FieldContribution} {
		answer, ok := r.answers[field]
		if !ok {
			continue
		}
		value := folderRelative(folder, answer, resolved[field])
		if err := r.persister.Persist(folder, field.Key(), value); err != nil {
			r.logger.Warn("persist answer", "field", field.String(), "error", err)
		}
	}
}

// folderRelative rewrites a relative answer so that, read back from folder's
// scope, it resolves to the same path. Absolute answers are saved resolved.
func folderRelative(folder, answer, resolved string) string {
	if filepath.IsAbs(filepath.FromSlash(answer)) {
		return resolved
	}
	rel, err := filepath.Rel(folder, resolved)
	if err != nil {
		return resolved
	}
	return filepath.ToSlash(rel)
}

func (r *Resolver) attempt() (Roots, Field, error) {
	cwd := r.workDir
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Roots{}, FieldEngine, errx.Wrap(ErrEnginePathUnspecified, err)
		}
		cwd = wd
	}

	setting, engine := r.engineCandidate(cwd)
	if engine == "" {
		return Roots{}, FieldEngine, ErrEnginePathUnspecified
	}
	if !HasEngineMarker(engine) {
		return Roots{}, FieldEngine, errx.With(ErrEnginePathInvalid, ": %s", engine)
	}

	workspace := r.workspaceCandidate(cwd)
	if workspace == "" {
		return Roots{}, FieldWorkspace, ErrWorkspacePathUnspecified
	}

	contribution := r.contributionCandidate(cwd)
	if contribution == "" {
		return Roots{}, FieldContribution, ErrContributionUnspecified
	}
	info, err := os.Stat(contribution)
	if err != nil || !info.Mode().IsRegular() {
		return Roots{}, FieldContribution, errx.With(ErrContributionMissing, ": %s", contribution)
	}

	return Roots{
		EnginePath:       engine,
		WorkspacePath:    workspace,
		ContributionPath: contribution,
		EngineSetting:    setting,
	}, FieldEngine, nil
}

// engineCandidate walks the lookup chain: answer, folder scopes, global scope,
// FONLINE_PATH, then probing the working directory and two levels up.
func (r *Resolver) engineCandidate(cwd string) (setting, path string) {
	if v, ok := r.answers[FieldEngine]; ok {
		return v, joinPath(cwd, v)
	}
	for _, folder := range r.folders {
		if v := r.settings.Get(folder, settings.KeyPath); v != "" {
			return v, joinPath(folder, v)
		}
	}
	if v := r.settings.Get("", settings.KeyPath); v != "" {
		return v, joinPath(cwd, v)
	}
	if v := r.getenv(EnginePathEnv); v != "" {
		return v, joinPath(cwd, v)
	}
	for _, rel := range []string{".", filepath.Join("..", "..")} {
		dir := joinPath(cwd, rel)
		if HasEngineMarker(dir) {
			r.logger.Debug("engine found by probing", "path", dir)
			return "", dir
		}
	}
	return "", ""
}

func (r *Resolver) workspaceCandidate(cwd string) string {
	if v, ok := r.answers[FieldWorkspace]; ok {
		return joinPath(cwd, v)
	}
	if v := r.scoped(settings.KeyWorkspace, cwd); v != "" {
		return v
	}
	return filepath.Join(r.base(cwd), "Workspace")
}

func (r *Resolver) contributionCandidate(cwd string) string {
	if v, ok := r.answers[FieldContribution]; ok {
		return joinPath(cwd, v)
	}
	return r.scoped(settings.KeyCMakeContribution, cwd)
}

// scoped reads key from the folder scopes, then the global scope. Global
// relative values are joined with the first folder.
func (r *Resolver) scoped(key, cwd string) string {
	for _, folder := range r.folders {
		if v := r.settings.Get(folder, key); v != "" {
			return joinPath(folder, v)
		}
	}
	if v := r.settings.Get("", key); v != "" {
		return joinPath(r.base(cwd), v)
	}
	return ""
}

func (r *Resolver) base(cwd string) string {
	if len(r.folders) > 0 {
		return r.folders[0]
	}
	return cwd
}

// HasEngineMarker reports whether dir looks like a FOnline engine checkout.
func HasEngineMarker(dir string) bool {
	if info, err := os.Stat(filepath.Join(dir, "BuildTools")); err == nil && info.IsDir() {
		return true
	}
	for _, script := range []string{"setup.ps1", "setup.sh"} {
		if info, err := os.Stat(filepath.Join(dir, script)); err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}

func joinPath(base, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	abs, err := filepath.Abs(filepath.Join(base, p))
	if err != nil {
		return filepath.Join(base, p)
	}
	return abs
}

// IsRootUnresolved reports whether err is one of the root resolution reasons.
func IsRootUnresolved(err error) bool {
	return errors.Is(err, ErrRootUnresolved)
}
