package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/settings"
)

var runCmd = &cobra.Command{
	Use:   "run <action>",
	Short: "Run a build action",
	Long: `Run one build action and exit with its exit code.

The action may be named by its command id (fonline.buildAll), its label
("Build All"), the id without its prefix (buildAll) or its kebab-case name
(build-all). Use "fodev actions" to list them.`,
	Example: `  fodev run build-all
  fodev run "Prepare Workspace" --hold
  fodev run fonline.buildAll --install-packages=false`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("hold", false, "Wait for a key press after the action finishes")
	runCmd.Flags().Bool("install-packages", true, "Let the build scripts install missing packages")
	runCmd.Flags().Bool("terminal", true, "Run under a pseudo-terminal when stdin is a terminal")

	viper.BindPFlag(settings.KeyHold, runCmd.Flags().Lookup("hold"))
	viper.BindPFlag(settings.KeyInstallPackages, runCmd.Flags().Lookup("install-packages"))
	viper.BindPFlag(settings.KeyTerminal, runCmd.Flags().Lookup("terminal"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rc, err := a.load(ctx)
	if err != nil {
		return err
	}
	reg := a.registry(rc, a.launcher())

	act, ok := reg.Lookup(args[0])
	if ok {
		printStep(a.errOut, "Running <green>%s</> <grey>%s</>", act.Label, act.CommandID)
	}
	h, err := reg.Invoke(ctx, args[0])
	if err != nil {
		return err
	}
	if h == nil {
		printWarning(a.errOut, fmt.Sprintf("%s is already running", args[0]))
		return nil
	}

	code, err := h.Wait(ctx)
	if err != nil {
		return err
	}
	if herr := h.Err(); herr != nil && !errors.Is(herr, ctx.Err()) {
		return errx.Wrap(ErrActionFailed, herr)
	}
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}
