package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fonline/fodev/pkg/hostenv"
	"github.com/fonline/fodev/pkg/settings"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the detected build environment",
	Long: `Show the host family, remote and engine-development modes and the
environment tags an action may carry to be offered here.`,
	Args: cobra.NoArgs,
	RunE: runEnv,
}

func init() {
	rootCmd.AddCommand(envCmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	remote := a.remoteName()
	env := hostenv.Detect(hostenv.Options{
		Platform:          a.platform(),
		RemoteName:        remote,
		EnginePathSetting: a.engineSetting(),
	})
	release := hostenv.KernelRelease()

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "FAMILY\t%s\n", env.Family)
	fmt.Fprintf(w, "REMOTE\t%t\t%s\n", env.IsRemote, remote)
	fmt.Fprintf(w, "ENGINE DEV\t%t\n", env.IsEngineDev)
	fmt.Fprintf(w, "TAGS\t%s\n", strings.Join(env.Tags(), ","))
	if release != "" {
		fmt.Fprintf(w, "KERNEL\t%s\n", release)
		fmt.Fprintf(w, "WSL\t%t\n", hostenv.IsWSL(release))
	}
	return w.Flush()
}

// engineSetting is the engine path as written in the first scope that sets
// it, without resolving it.
func (a *app) engineSetting() string {
	for _, folder := range a.folders {
		if v := a.store.Get(folder, settings.KeyPath); v != "" {
			return v
		}
	}
	return a.store.Get("", settings.KeyPath)
}
