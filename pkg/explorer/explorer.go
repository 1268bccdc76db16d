// Package explorer builds the content and resource trees shown to the user.
// It reads through a vfs.FileSystem and does not implement one.
package explorer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/config"
	"github.com/fonline/fodev/pkg/vfs"
)

var ErrReadEntry = errors.New("read explorer entry")

// OpenFileCommand is the command attached to file nodes.
const OpenFileCommand = "fonline.openFile"

// Node is one tree element. Group nodes have children; leaves carry either a
// file path or a command.
type Node struct {
	Label    string
	Path     string
	Command  string
	Tooltip  string
	Children []*Node
}

// Item is how a node is displayed.
type Item struct {
	Label       string
	Tooltip     string
	Command     string
	Argument    string
	Collapsible bool
}

// Source supplies a tree. Children(nil) returns the roots.
type Source interface {
	Children(n *Node) []*Node
	Display(n *Node) Item
}

// Tree is a static Source.
type Tree struct {
	roots []*Node
}

func NewTree(roots []*Node) *Tree {
	return &Tree{roots: roots}
}

func (t *Tree) Roots() []*Node { return t.roots }

func (t *Tree) Children(n *Node) []*Node {
	if n == nil {
		return t.roots
	}
	return n.Children
}

func (t *Tree) Display(n *Node) Item {
	item := Item{Label: n.Label, Tooltip: n.Tooltip, Command: n.Command}
	switch {
	case n.Children != nil:
		item.Collapsible = true
	case n.Path != "":
		item.Command = OpenFileCommand
		item.Argument = n.Path
		if item.Tooltip == "" {
			item.Tooltip = n.Path
		}
	}
	return item
}

// Fill builds one root per entry holding the files found at the entry path.
// Subdirectories are descended only when recursive; their files are listed
// flat under the root. Entries without files are left out. Unreadable
// entries are skipped and reported in the returned error.
func Fill(fsys vfs.FileSystem, entries []config.Entry, recursive bool) (*Tree, error) {
	var roots []*Node
	var errs []error
	for _, e := range entries {
		var files []*Node
		if err := collect(fsys, e.Path, recursive, &files); err != nil {
			errs = append(errs, errx.With(ErrReadEntry, ": %s: %w", e.Label, err))
		}
		if len(files) > 0 {
			roots = append(roots, &Node{Label: e.Label, Tooltip: e.Path, Children: files})
		}
	}
	return NewTree(roots), errors.Join(errs...)
}

func collect(fsys vfs.FileSystem, dir string, recursive bool, out *[]*Node) error {
	children, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, child := range children {
		p := filepath.Join(dir, child.Name)
		if child.Type == vfs.TypeDir {
			// Linked directories are not descended, as in Watch; a link
			// back to an ancestor would otherwise repeat the tree.
			if recursive && !child.Link {
				if err := collect(fsys, p, recursive, out); err != nil {
					return err
				}
			}
			continue
		}
		*out = append(*out, &Node{Label: child.Name, Path: p})
	}
	return nil
}

// Render writes src as an indented outline, two spaces per level.
func Render(w io.Writer, src Source) error {
	return render(w, src, src.Children(nil), 0)
}

func render(w io.Writer, src Source, nodes []*Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		item := src.Display(n)
		line := indent + item.Label
		if item.Command != "" && item.Command != OpenFileCommand {
			line += " (" + item.Command + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if item.Collapsible {
			if err := render(w, src, src.Children(n), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
