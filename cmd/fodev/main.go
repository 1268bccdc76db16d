package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/settings"
)

var rootCmd = &cobra.Command{
	Use:   "fodev",
	Short: "FOnline engine build environment companion",
	Long: `fodev finds the FOnline engine and workspace, merges every fonline*.json
document it can see and offers the build actions that fit this machine.

Settings are read from, in order of precedence: flags, FONLINE_* environment
variables, fodev.yaml (working directory or ~/.config/fodev) and per-folder
.fonline/settings.json files.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return initConfig() },
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringSlice("folder", nil, "Workspace folder (can be repeated; default: current directory)")
	pf.String("config", "", "Config file (default: ./fodev.yaml or ~/.config/fodev/fodev.yaml)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("events", "", "Append the event stream as JSON lines to this file (- for stdout)")
	pf.Bool("no-prompt", false, "Never prompt for missing roots")
	pf.String("platform", "", "Platform to select actions for (windows, linux, darwin; default: this host)")
	pf.String("remote-name", "", "Remote session name (default: detected from the environment)")

	viper.BindPFlag("folders", pf.Lookup("folder"))
	viper.BindPFlag("config", pf.Lookup("config"))
	viper.BindPFlag(settings.KeyLogLevel, pf.Lookup("log-level"))
	viper.BindPFlag(settings.KeyLogEvents, pf.Lookup("events"))
	viper.BindPFlag("no-prompt", pf.Lookup("no-prompt"))
	viper.BindPFlag("platform", pf.Lookup("platform"))
	viper.BindPFlag(settings.KeyRemoteName, pf.Lookup("remote-name"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

// initConfig wires the global viper instance: environment, defaults and the
// optional config file. A missing default config file is fine; a missing
// explicit one is not.
func initConfig() error {
	v := viper.GetViper()
	settings.Configure(v)

	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
	} else {
		v.SetConfigName("fodev")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "fodev"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errx.Wrap(ErrReadConfigFile, err)
		}
	}
	return nil
}

func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	color.Fprintf(w, "<red>Error:</> %v\n", err)
	return 1
}
