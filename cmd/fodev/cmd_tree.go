package main

import (
	"github.com/spf13/cobra"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/config"
	"github.com/fonline/fodev/pkg/explorer"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Show the content tree",
	Long:  "Show the files directly inside every content entry. Subdirectories are not listed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTree(cmd, (*config.ResolvedContext).Content, false)
	},
}

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Show the resources tree",
	Long:  "Show every file below every resource entry.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTree(cmd, (*config.ResolvedContext).Resources, true)
	},
}

func init() {
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(resourcesCmd)
}

func runTree(cmd *cobra.Command, entries func(*config.ResolvedContext) []config.Entry, recursive bool) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rc, err := a.load(cmd.Context())
	if err != nil {
		return err
	}

	tree, err := explorer.Fill(a.fsys, entries(rc), recursive)
	if err != nil {
		printWarning(a.errOut, err.Error())
	}
	if err := explorer.Render(a.out, tree); err != nil {
		return errx.Wrap(ErrRenderTree, err)
	}
	return nil
}
