package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/action"
	"github.com/fonline/fodev/pkg/config"
	"github.com/fonline/fodev/pkg/hostenv"
	"github.com/fonline/fodev/pkg/launcher"
	"github.com/fonline/fodev/pkg/logging"
	"github.com/fonline/fodev/pkg/settings"
	"github.com/fonline/fodev/pkg/vfs"
)

// app is the per-invocation wiring shared by every subcommand.
type app struct {
	v       *viper.Viper
	logger  *slog.Logger
	emitter *logging.Emitter
	store   *settings.Store
	folders []string
	runID   string
	fsys    vfs.FileSystem

	in     *os.File
	out    io.Writer
	errOut io.Writer

	// prompter overrides the interactive prompter; tests set it.
	prompter config.Prompter
}

func newApp(cmd *cobra.Command) (*app, error) {
	v := viper.GetViper()
	errOut := cmd.ErrOrStderr()

	level, err := parseLevel(v.GetString(settings.KeyLogLevel))
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	folders, err := workspaceFolders(v.GetStringSlice("folders"))
	if err != nil {
		return nil, err
	}
	store, err := settings.New(v, folders)
	if err != nil {
		return nil, errx.Wrap(ErrLoadSettings, err)
	}

	a := &app{
		v:       v,
		logger:  logger,
		store:   store,
		folders: store.Folders(),
		runID:   uuid.NewString(),
		fsys:    vfs.NewLocalFS(logger),
		in:      os.Stdin,
		out:     cmd.OutOrStdout(),
		errOut:  errOut,
	}

	sinks := []logging.Sink{logging.NewLogSink(logger)}
	if path := v.GetString(settings.KeyLogEvents); path != "" {
		w, err := logging.NewJSONLWriter(path)
		if err != nil {
			return nil, errx.Wrap(ErrOpenEventLog, err)
		}
		sinks = append(sinks, w)
	}
	a.emitter = logging.NewEmitter(logging.EmitterConfig{
		RunID:  a.runID,
		Family: hostenv.ParseFamily(a.platform()).String(),
	}, sinks...)
	return a, nil
}

func (a *app) Close() error {
	return a.emitter.Close()
}

func (a *app) platform() string {
	return a.v.GetString("platform")
}

// remoteName is the configured remote session, or the detected one.
func (a *app) remoteName() string {
	if name := a.store.Get("", settings.KeyRemoteName); name != "" {
		return name
	}
	return hostenv.RemoteFromEnv(os.Getenv, hostenv.KernelRelease())
}

func (a *app) interactive() bool {
	return !a.v.GetBool("no-prompt") && a.in != nil && term.IsTerminal(int(a.in.Fd()))
}

func (a *app) resolver() *config.Resolver {
	opts := []config.ResolverOption{
		config.WithMaxAttempts(a.v.GetInt(settings.KeyMaxAttempts)),
		config.WithPersister(a.store),
		config.WithResolverLogger(a.logger),
		config.WithResolverEmitter(a.emitter),
	}
	switch {
	case a.prompter != nil:
		opts = append(opts, config.WithPrompter(a.prompter))
	case a.interactive():
		opts = append(opts, config.WithPrompter(newTerminalPrompter(a.errOut)))
	}
	return config.NewResolver(a.store, a.folders, opts...)
}

// load resolves roots and applies every document.
func (a *app) load(ctx context.Context) (*config.ResolvedContext, error) {
	engineConfig := a.store.Get("", settings.KeyEngineConfig)
	for _, folder := range a.folders {
		if v := a.store.Get(folder, settings.KeyEngineConfig); v != "" {
			engineConfig = v
			break
		}
	}

	rc, err := config.Load(ctx, config.LoadOptions{
		Resolver:     a.resolver(),
		Aggregator:   config.NewAggregator(config.WithAggregatorLogger(a.logger), config.WithAggregatorEmitter(a.emitter)),
		Folders:      a.folders,
		Platform:     a.platform(),
		RemoteName:   a.remoteName(),
		EngineConfig: engineConfig,
		Logger:       a.logger,
	})
	if err != nil {
		return nil, err
	}
	for _, problem := range rc.Problems() {
		printWarning(a.errOut, problem.Error())
	}
	return rc, nil
}

func (a *app) launcher(extra ...launcher.Option) *launcher.Launcher {
	opts := []launcher.Option{
		launcher.WithLogger(a.logger),
		launcher.WithEmitter(a.emitter),
		launcher.WithPollInterval(a.v.GetDuration(settings.KeyPollInterval)),
		launcher.WithTimeout(a.v.GetDuration(settings.KeyLaunchTimeout)),
		launcher.WithStdio(a.in, a.out, a.errOut),
	}
	return launcher.New(append(opts, extra...)...)
}

func (a *app) registry(rc *config.ResolvedContext, starter action.Starter) *action.Registry {
	return action.Build(rc, action.Options{
		Hold:            a.v.GetBool(settings.KeyHold),
		InstallPackages: a.v.GetBool(settings.KeyInstallPackages),
		Terminal:        a.v.GetBool(settings.KeyTerminal),
		Starter:         starter,
		Logger:          a.logger,
		Emitter:         a.emitter,
	})
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, errx.With(ErrInvalidLogLevel, ": %q", s)
	}
	return level, nil
}

// workspaceFolders makes folders absolute. No folders means the working
// directory.
func workspaceFolders(folders []string) ([]string, error) {
	if len(folders) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errx.Wrap(ErrResolveFolder, err)
		}
		return []string{wd}, nil
	}
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, errx.Wrap(ErrResolveFolder, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
