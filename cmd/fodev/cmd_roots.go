package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Resolve and print the engine, workspace and contribution paths",
	Long: `Resolve the engine, workspace and CMake contribution paths.

When a path is missing or invalid and the terminal is interactive, fodev asks
for it and stores the answer in the first folder's .fonline/settings.json.`,
	Args: cobra.NoArgs,
	RunE: runRoots,
}

func init() {
	rootCmd.AddCommand(rootsCmd)
}

func runRoots(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	roots, err := a.resolver().Resolve(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ENGINE\t%s\n", roots.EnginePath)
	fmt.Fprintf(w, "WORKSPACE\t%s\n", roots.WorkspacePath)
	fmt.Fprintf(w, "CONTRIBUTION\t%s\n", roots.ContributionPath)
	return w.Flush()
}
