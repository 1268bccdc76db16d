package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fonline/fodev/pkg/action"
)

var actionsCmd = &cobra.Command{
	Use:     "actions",
	Aliases: []string{"ls"},
	Short:   "List the build actions offered in this environment",
	Args:    cobra.NoArgs,
	RunE:    runActions,
}

func init() {
	actionsCmd.Flags().Bool("all", false, "Also list configured actions that are not offered here")
	viper.BindPFlag("actions.all", actionsCmd.Flags().Lookup("all"))

	rootCmd.AddCommand(actionsCmd)
}

func runActions(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rc, err := a.load(cmd.Context())
	if err != nil {
		return err
	}
	reg := a.registry(rc, nil)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, g := range reg.Groups() {
		fmt.Fprintln(w, color.Sprintf("<green>%s</>", g.Name))
		for _, act := range g.Actions {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", act.Label, action.KebabName(act.Label), color.Sprintf("<grey>%s</>", act.CommandID))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !all {
		return nil
	}
	var hidden []string
	for _, entry := range rc.Actions() {
		if _, ok := reg.Lookup(action.CommandID(entry.Label)); ok && entry.Complete() {
			continue
		}
		reason := "env " + strings.Join(entry.Env, ",")
		if !entry.Complete() {
			reason = "incomplete"
		}
		hidden = append(hidden, fmt.Sprintf("  %s\t%s\t%s", entry.Label, entry.Group, reason))
	}
	if len(hidden) == 0 {
		return nil
	}
	fmt.Fprintln(a.out, color.Sprintf("<grey>not offered</>"))
	w = tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, line := range hidden {
		fmt.Fprintln(w, line)
	}
	return w.Flush()
}
