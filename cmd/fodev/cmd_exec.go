package main

import (
	"github.com/spf13/cobra"

	"github.com/fonline/fodev/pkg/launcher"
)

var execCmd = &cobra.Command{
	Use:   "exec -- <command> [args...]",
	Short: "Run a command in the engine root and exit with its code",
	Long: `Run a command without a terminal in the resolved engine root, wait for it
and exit with its exit code. Output is copied to stdout.`,
	Example: `  fodev exec -- cmake --version
  fodev exec -- bash BuildTools/prepare-workspace.sh`,
	Args: cobra.ArbitraryArgs,
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return ErrCommandRequired
	}
	ctx := cmd.Context()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	roots, err := a.resolver().Resolve(ctx)
	if err != nil {
		return err
	}

	l := a.launcher(launcher.WithHiddenOutput(a.out))
	code := l.LaunchAndWait(ctx, args[0], args[1:], roots.EnginePath)
	if err := ctx.Err(); err != nil {
		return err
	}
	switch {
	case code == 0:
		return nil
	case code < 0:
		printWarning(a.errOut, "command did not report an exit code")
		return &exitError{code: 1}
	default:
		return &exitError{code: code}
	}
}
