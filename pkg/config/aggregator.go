package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/logging"
	"github.com/fonline/fodev/pkg/settings"
)

// ConfigPattern selects the documents picked up from a workspace folder.
const ConfigPattern = "fonline*.json"

// DefaultEngineConfig is where the engine repository keeps its own document.
const DefaultEngineConfig = settings.DefaultEngineConfig

// Aggregator merges documents into ordered content, resource and action lists.
// Each later document is inserted ahead of everything applied before it, and
// a document is applied at most once, keyed by its canonical path.
type Aggregator struct {
	logger   *slog.Logger
	emitter  *logging.Emitter
	readFile func(string) ([]byte, error)

	applied   map[string]bool
	documents []string
	problems  []error

	content   []Entry
	resources []Entry
	actions   []ActionEntry
}

type AggregatorOption func(*Aggregator)

func WithAggregatorLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = logger }
}

func WithAggregatorEmitter(emitter *logging.Emitter) AggregatorOption {
	return func(a *Aggregator) { a.emitter = emitter }
}

func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		readFile: os.ReadFile,
		applied:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "config")
	return a
}

// Apply reads and merges the document at path. It returns false without doing
// anything when the same canonical path was applied before. A malformed
// document still counts as applied.
func (a *Aggregator) Apply(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, errx.Wrap(ErrReadConfig, err)
	}
	key := canonicalPath(abs)
	if a.applied[key] {
		a.logger.Debug("config already applied", "path", abs)
		return false, nil
	}
	a.applied[key] = true
	a.logger.Info("apply config", "path", abs)

	data, err := a.readFile(abs)
	if err != nil {
		return true, errx.Wrap(ErrReadConfig, err)
	}
	doc, err := ParseDocument(abs, data)
	if err != nil {
		return true, err
	}

	a.content = prepend(doc.Content, a.content)
	a.resources = prepend(doc.Resources, a.resources)
	a.actions = prepend(doc.Actions, a.actions)
	a.documents = append(a.documents, abs)

	_ = a.emitter.Emit(logging.EventConfigApplied, "apply config "+abs, "config", nil, &logging.ConfigAppliedData{
		Path:      abs,
		Content:   len(doc.Content),
		Resources: len(doc.Resources),
		Actions:   len(doc.Actions),
	})
	return true, nil
}

// DiscoverAndApplyAll applies the engine document first and then every
// top-level fonline*.json of each folder, folders in the given order and files
// in directory listing order. A failing document does not stop its siblings;
// all failures are returned joined and kept in Problems.
func (a *Aggregator) DiscoverAndApplyAll(ctx context.Context, roots Roots, folders []string, engineConfig string) error {
	if engineConfig == "" {
		engineConfig = DefaultEngineConfig
	}
	var errs []error
	record := func(err error) {
		a.logger.Warn("config skipped", "error", err)
		errs = append(errs, err)
	}

	primary := filepath.Join(roots.EnginePath, filepath.FromSlash(engineConfig))
	a.logger.Debug("check engine folder", "path", roots.EnginePath)
	if _, err := os.Stat(primary); err == nil {
		if _, err := a.Apply(primary); err != nil {
			record(err)
		}
	} else {
		a.logger.Warn("engine config not found", "path", primary)
	}

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.logger.Debug("check workspace folder", "folder", folder)
		entries, err := os.ReadDir(folder)
		if err != nil {
			record(errx.Wrap(ErrScanFolder, err))
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if ok, _ := doublestar.Match(ConfigPattern, e.Name()); !ok {
				continue
			}
			if _, err := a.Apply(filepath.Join(folder, e.Name())); err != nil {
				record(err)
			}
		}
	}

	a.problems = append(a.problems, errs...)
	return errors.Join(errs...)
}

func (a *Aggregator) Content() []Entry { return append([]Entry(nil), a.content...) }
func (a *Aggregator) Resources() []Entry { return append([]Entry(nil), a.resources...) }
func (a *Aggregator) Actions() []ActionEntry { return append([]ActionEntry(nil), a.actions...) }
func (a *Aggregator) Documents() []string { return append([]string(nil), a.documents...) }
func (a *Aggregator) Problems() []error { return append([]error(nil), a.problems...) }

func prepend[T any](front, rest []T) []T {
	if len(front) == 0 {
		return rest
	}
	out := make([]T, 0, len(front)+len(rest))
	out = append(out, front...)
	return append(out, rest...)
}

// canonicalPath resolves symlinks where possible. Windows paths compare
// case-insensitively.
func canonicalPath(abs string) string {
	p := abs
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		p = resolved
	}
	p = filepath.Clean(p)
	if runtime.GOOS == "windows" {
		p = strings.ToLower(p)
	}
	return p
}
