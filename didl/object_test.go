package didl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// a minimal 1x1 GIF, enough for mimetype to sniff image/gif.
var gifBytes = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02,
	0x44, 0x01, 0x00, 0x3b,
}

func newTree(t *testing.T) string {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Movies"), 0o755))
	writeFile(t, filepath.Join(root, "Movies", "pic.gif"), gifBytes)
	writeFile(t, filepath.Join(root, "Movies", "notes.txt"), []byte("hello"))
	return root
}

func TestChildrenBrowseFiltersNonMedia(t *testing.T) {
	root := newTree(t)
	o := New(root, "http://192.168.1.10:8200", "0", Browse)

	children, err := o.Children()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "/Movies", children[0].ID())
	assert.True(t, children[0].IsDir())
}

func TestChildrenSearchDescendsAndFilters(t *testing.T) {
	root := newTree(t)
	o := New(root, "http://192.168.1.10:8200", "0", Search)

	children, err := o.Children()
	require.NoError(t, err)

	var ids []string
	for _, c := range children {
		ids = append(ids, c.ID())
	}
	assert.Contains(t, ids, "/Movies")
	assert.Contains(t, ids, "/Movies/pic.gif")
	assert.NotContains(t, ids, "/Movies/notes.txt")
}

func TestObjectElementForItem(t *testing.T) {
	root := newTree(t)
	o := New(root, "http://192.168.1.10:8200", "/Movies/pic.gif", Browse)

	assert.False(t, o.IsDir())
	mime, err := o.MIME()
	require.NoError(t, err)
	assert.Equal(t, "image/gif", mime)

	uclass, err := o.UClass()
	require.NoError(t, err)
	assert.Equal(t, "object.item.imageItem", uclass)

	loc, err := o.Location()
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.10:8200/media/Movies/pic.gif", loc)

	el, err := o.Element()
	require.NoError(t, err)
	assert.Equal(t, "item", el.Local)
	assert.Equal(t, "/Movies/pic.gif", el.Attrs[0].Value)
}

func TestObjectParentID(t *testing.T) {
	root := newTree(t)
	o := New(root, "http://192.168.1.10:8200", "0", Browse)
	assert.Equal(t, "-1", o.ParentID())

	child := New(root, "http://192.168.1.10:8200", "/Movies/pic.gif", Browse)
	assert.Equal(t, "/Movies", child.ParentID())
}
