package main

import (
	"io"
	"sync"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/config"
	"github.com/fonline/fodev/pkg/vfs"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes below the content and resource entries",
	Long: `Watch every content entry (top level only) and every resource entry
(recursively) and print one line per change until interrupted.`,
	Example: `  fodev watch
  fodev watch --exclude '**/*.tmp' --exclude 'Cache'`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSlice("exclude", nil, "Glob of paths to ignore, relative to each entry (can be repeated)")
	viper.BindPFlag("watch.exclude", watchCmd.Flags().Lookup("exclude"))

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	excludes := a.v.GetStringSlice("watch.exclude")

	var watchers []vfs.Watcher
	defer func() {
		for _, w := range watchers {
			w.Close()
		}
	}()
	add := func(entries []config.Entry, recursive bool) error {
		for _, e := range entries {
			w, err := a.fsys.Watch(e.Path, vfs.WatchOptions{Recursive: recursive, Excludes: excludes})
			if err != nil {
				return errx.With(ErrWatch, ": %s: %w", e.Path, err)
			}
			watchers = append(watchers, w)
		}
		return nil
	}
	if err := add(rc.Content(), false); err != nil {
		return err
	}
	if err := add(rc.Resources(), true); err != nil {
		return err
	}
	if len(watchers) == 0 {
		printWarning(a.errOut, "nothing to watch")
		return nil
	}
	printStep(a.errOut, "Watching <green>%d</> entries", len(watchers))

	events := make(chan vfs.Event)
	var wg sync.WaitGroup
	for _, w := range watchers {
		wg.Add(1)
		go func(w vfs.Watcher) {
			defer wg.Done()
			forward(ctx.Done(), w, events, a.errOut)
		}(w)
	}

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case ev := <-events:
			color.Fprintf(a.out, "%s %s\n", changeTag(ev.Type), ev.Path)
		}
	}
}

// forward copies one watcher's events to out until done or the watcher closes.
func forward(done <-chan struct{}, w vfs.Watcher, out chan<- vfs.Event, errOut io.Writer) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			select {
			case out <- ev:
			case <-done:
				return
			}
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			printWarning(errOut, err.Error())
		}
	}
}

func changeTag(t vfs.ChangeType) string {
	switch t {
	case vfs.Created:
		return "<green>created</>"
	case vfs.Deleted:
		return "<red>deleted</>"
	default:
		return "<yellow>changed</>"
	}
}
