package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/config"
	"github.com/fonline/fodev/pkg/vfs"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Create, move and remove files inside content and resource entries",
	Long: `Edit the files shown by "fodev content" and "fodev resources".

Every path is relative to the entry named by its label and may not leave it.`,
}

var fileNewCmd = &cobra.Command{
	Use:     "new <entry> <path>",
	Short:   "Create an empty file",
	Example: `  fodev file new Scripts quest/intro.fos`,
	Args:    cobra.ExactArgs(2),
	RunE:    runFileNew,
}

var fileMoveCmd = &cobra.Command{
	Use:     "mv <entry> <from> <to>",
	Short:   "Rename a file or directory",
	Example: `  fodev file mv Maps old.fomap new.fomap`,
	Args:    cobra.ExactArgs(3),
	RunE:    runFileMove,
}

var fileRemoveCmd = &cobra.Command{
	Use:     "rm <entry> <path>",
	Short:   "Remove a file or directory",
	Example: `  fodev file rm Art Critters --recursive`,
	Args:    cobra.ExactArgs(2),
	RunE:    runFileRemove,
}

func init() {
	fileNewCmd.Flags().Bool("overwrite", false, "Truncate the file when it exists")
	fileMoveCmd.Flags().Bool("overwrite", false, "Replace the destination when it exists")
	fileRemoveCmd.Flags().Bool("recursive", false, "Remove a directory and everything below it")

	viper.BindPFlag("file.new.overwrite", fileNewCmd.Flags().Lookup("overwrite"))
	viper.BindPFlag("file.mv.overwrite", fileMoveCmd.Flags().Lookup("overwrite"))
	viper.BindPFlag("file.rm.recursive", fileRemoveCmd.Flags().Lookup("recursive"))

	fileCmd.AddCommand(fileNewCmd, fileMoveCmd, fileRemoveCmd)
	rootCmd.AddCommand(fileCmd)
}

func runFileNew(cmd *cobra.Command, args []string) error {
	return withEntry(cmd, args[0], func(a *app, entry config.Entry) error {
		p, err := entryPath(entry, args[1])
		if err != nil {
			return err
		}
		opts := vfs.WriteOptions{Create: true, Overwrite: a.v.GetBool("file.new.overwrite")}
		if err := a.fsys.WriteFile(p, nil, opts); err != nil {
			return errx.With(ErrFileOperation, ": new %s: %w", args[1], err)
		}
		printStep(a.errOut, "Created <green>%s</>", p)
		return nil
	})
}

func runFileMove(cmd *cobra.Command, args []string) error {
	return withEntry(cmd, args[0], func(a *app, entry config.Entry) error {
		from, err := entryPath(entry, args[1])
		if err != nil {
			return err
		}
		to, err := entryPath(entry, args[2])
		if err != nil {
			return err
		}
		opts := vfs.RenameOptions{Overwrite: a.v.GetBool("file.mv.overwrite")}
		if err := a.fsys.Rename(from, to, opts); err != nil {
			return errx.With(ErrFileOperation, ": mv %s: %w", args[1], err)
		}
		printStep(a.errOut, "Moved <grey>%s</> to <green>%s</>", from, to)
		return nil
	})
}

func runFileRemove(cmd *cobra.Command, args []string) error {
	return withEntry(cmd, args[0], func(a *app, entry config.Entry) error {
		p, err := entryPath(entry, args[1])
		if err != nil {
			return err
		}
		opts := vfs.RemoveOptions{Recursive: a.v.GetBool("file.rm.recursive")}
		if err := a.fsys.Remove(p, opts); err != nil {
			return errx.With(ErrFileOperation, ": rm %s: %w", args[1], err)
		}
		printStep(a.errOut, "Removed <red>%s</>", p)
		return nil
	})
}

// withEntry loads the project and runs fn against the content or resource
// entry labelled label. Content entries are searched first.
func withEntry(cmd *cobra.Command, label string, fn func(*app, config.Entry) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rc, err := a.load(cmd.Context())
	if err != nil {
		return err
	}
	for _, entry := range append(rc.Content(), rc.Resources()...) {
		if entry.Label == label {
			return fn(a, entry)
		}
	}
	return errx.With(ErrUnknownEntry, ": %s", label)
}

func entryPath(entry config.Entry, rel string) (string, error) {
	rel = filepath.FromSlash(rel)
	if !filepath.IsLocal(rel) {
		return "", errx.With(ErrOutsideEntry, ": %s", rel)
	}
	return filepath.Join(entry.Path, rel), nil
}
