package objectpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "movies")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	file := filepath.Join(sub, "a.mp4")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	p, err := FromPath(dir, file)
	require.NoError(t, err)
	assert.Equal(t, Path("/movies/a.mp4"), p)

	got := p.AsID()
	back := FromID(got).AsPath(dir)
	assert.Equal(t, file, back)
}

func TestRootIsID0(t *testing.T) {
	assert.Equal(t, "0", Root.AsID())
	assert.Equal(t, Root, FromID("0"))
	assert.Equal(t, Root, Root.Parent())
}

func TestAsPathRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	p := Path("/../../etc/passwd")
	got := p.AsPath(dir)
	assert.Equal(t, filepath.Join(dir, "etc/passwd"), got)
}

func TestAsURI(t *testing.T) {
	p := Path("/movies/a.mp4")
	uri, err := p.AsURI("http://192.168.1.10:8200")
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.10:8200/movies/a.mp4", uri)
}
