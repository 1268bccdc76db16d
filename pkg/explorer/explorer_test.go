package explorer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fonline/fodev/pkg/config"
	"github.com/fonline/fodev/pkg/vfs"
)

func memTree(t *testing.T) *vfs.MemFS {
	t.Helper()
	m := vfs.NewMemFS()
	for _, p := range []string{
		"/game/Maps/a.fomap",
		"/game/Maps/b.fomap",
		"/game/Maps/old/c.fomap",
		"/game/Art/Critters/x.frm",
		"/game/Art/Items/y.frm",
	} {
		require.NoError(t, m.WriteFile(p, nil, vfs.WriteOptions{Create: true}))
	}
	require.NoError(t, m.MkdirAll("/game/Empty/sub"))
	return m
}

func childLabels(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Label)
	}
	return out
}

func TestFillNonRecursive(t *testing.T) {
	tree, err := Fill(memTree(t), []config.Entry{{Label: "Maps", Path: "/game/Maps"}}, false)
	require.NoError(t, err)

	roots := tree.Children(nil)
	require.Len(t, roots, 1)
	assert.Equal(t, "Maps", roots[0].Label)
	assert.Equal(t, []string{"a.fomap", "b.fomap"}, childLabels(roots[0].Children))
	assert.Equal(t, filepath.Join("/game/Maps", "a.fomap"), roots[0].Children[0].Path)
}

func TestFillRecursiveFlattens(t *testing.T) {
	tree, err := Fill(memTree(t), []config.Entry{{Label: "Art", Path: "/game/Art"}}, true)
	require.NoError(t, err)

	roots := tree.Children(nil)
	require.Len(t, roots, 1)
	assert.Equal(t, []string{"x.frm", "y.frm"}, childLabels(roots[0].Children))
}

func TestFillOmitsEntriesWithoutFiles(t *testing.T) {
	tree, err := Fill(memTree(t), []config.Entry{
		{Label: "Empty", Path: "/game/Empty"},
		{Label: "Art", Path: "/game/Art"},
	}, false)
	require.NoError(t, err)
	assert.Empty(t, tree.Children(nil))
}

func TestFillReportsUnreadableEntries(t *testing.T) {
	tree, err := Fill(memTree(t), []config.Entry{
		{Label: "Missing", Path: "/game/Missing"},
		{Label: "Maps", Path: "/game/Maps"},
	}, false)
	assert.ErrorIs(t, err, ErrReadEntry)
	assert.ErrorIs(t, err, vfs.ErrFileNotFound)
	assert.Equal(t, []string{"Maps"}, childLabels(tree.Children(nil)))
}

func TestDisplay(t *testing.T) {
	tree, err := Fill(memTree(t), []config.Entry{{Label: "Maps", Path: "/game/Maps"}}, false)
	require.NoError(t, err)

	root := tree.Children(nil)[0]
	item := tree.Display(root)
	assert.True(t, item.Collapsible)
	assert.Empty(t, item.Command)

	leaf := tree.Display(root.Children[0])
	assert.False(t, leaf.Collapsible)
	assert.Equal(t, OpenFileCommand, leaf.Command)
	assert.Equal(t, root.Children[0].Path, leaf.Argument)
}

func TestRender(t *testing.T) {
	tree := NewTree([]*Node{
		{Label: "Build", Children: []*Node{
			{Label: "Build All", Command: "fonline.buildAll"},
		}},
		{Label: "Maps", Children: []*Node{
			{Label: "a.fomap", Path: "/game/Maps/a.fomap"},
		}},
	})

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tree))
	assert.Equal(t, "Build\n  Build All (fonline.buildAll)\nMaps\n  a.fomap\n", buf.String())
}

func TestFillLocalFS(t *testing.T) {
	dir := t.TempDir()
	l := vfs.NewLocalFS(nil)
	require.NoError(t, l.WriteFile(filepath.Join(dir, "Scripts", "main.fos"), []byte("x"), vfs.WriteOptions{Create: true}))

	tree, err := Fill(l, []config.Entry{{Label: "Scripts", Path: filepath.Join(dir, "Scripts")}}, false)
	require.NoError(t, err)
	require.Len(t, tree.Roots(), 1)
	assert.Equal(t, filepath.Join(dir, "Scripts", "main.fos"), tree.Roots()[0].Children[0].Path)
}

func TestFillRecursiveSkipsLinkedDirectories(t *testing.T) {
	dir := t.TempDir()
	l := vfs.NewLocalFS(nil)
	require.NoError(t, l.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), vfs.WriteOptions{Create: true}))
	require.NoError(t, l.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), vfs.WriteOptions{Create: true}))
	if err := os.Symlink(".", filepath.Join(dir, "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tree, err := Fill(l, []config.Entry{{Label: "Art", Path: dir}}, true)
	require.NoError(t, err)
	require.Len(t, tree.Roots(), 1)

	var paths []string
	for _, n := range tree.Roots()[0].Children {
		paths = append(paths, n.Path)
	}
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "sub", "b.txt"),
	}, paths)
}
