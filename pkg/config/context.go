package config

import (
	"context"
	"log/slog"

	"github.com/fonline/fodev/pkg/hostenv"
)

// ResolvedContext is everything later components need, produced once per run.
// Accessors return copies; the context itself never changes.
type ResolvedContext struct {
	roots     Roots
	env       hostenv.Env
	content   []Entry
	resources []Entry
	actions   []ActionEntry
	documents []string
	problems  []error
}

// NewResolvedContext assembles a context from already resolved parts.
func NewResolvedContext(roots Roots, env hostenv.Env, agg *Aggregator) *ResolvedContext {
	rc := &ResolvedContext{roots: roots, env: env}
	if agg != nil {
		rc.content = agg.Content()
		rc.resources = agg.Resources()
		rc.actions = agg.Actions()
		rc.documents = agg.Documents()
		rc.problems = agg.Problems()
	}
	return rc
}

func (rc *ResolvedContext) Roots() Roots { return rc.roots }

func (rc *ResolvedContext) Env() hostenv.Env { return rc.env }

func (rc *ResolvedContext) Content() []Entry { return append([]Entry(nil), rc.content...) }

func (rc *ResolvedContext) Resources() []Entry { return append([]Entry(nil), rc.resources...) }

func (rc *ResolvedContext) Actions() []ActionEntry { return append([]ActionEntry(nil), rc.actions...) }

func (rc *ResolvedContext) Documents() []string { return append([]string(nil), rc.documents...) }

// Problems lists the documents that failed to apply. They do not fail Load.
func (rc *ResolvedContext) Problems() []error { return append([]error(nil), rc.problems...) }

// LoadOptions wires Load. Resolver is required; Aggregator defaults to a fresh
// one using Logger.
type LoadOptions struct {
	Resolver     *Resolver
	Aggregator   *Aggregator
	Folders      []string
	Platform     string
	RemoteName   string
	EngineConfig string
	Logger       *slog.Logger
}

// Load resolves roots, detects the host environment and applies every
// document. It fails only when roots cannot be resolved or ctx is done.
func Load(ctx context.Context, opts LoadOptions) (*ResolvedContext, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	roots, err := opts.Resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	env := hostenv.Detect(hostenv.Options{
		Platform:          opts.Platform,
		RemoteName:        opts.RemoteName,
		EnginePathSetting: roots.EngineSetting,
	})
	logger.Debug("environment detected",
		"family", env.Family.String(),
		"remote", env.IsRemote,
		"engine_dev", env.IsEngineDev)

	agg := opts.Aggregator
	if agg == nil {
		agg = NewAggregator(WithAggregatorLogger(logger))
	}
	if err := agg.DiscoverAndApplyAll(ctx, roots, opts.Folders, opts.EngineConfig); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("some configs were not applied", "error", err)
	}

	return NewResolvedContext(roots, env, agg), nil
}
