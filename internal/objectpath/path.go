// Package objectpath maps between DLNA object IDs, URL paths and
// filesystem paths under a media root. The mapping is total and
// bijective: the root container is "0" / "/"; every other object is a
// POSIX-style absolute path relative to the media root.
package objectpath

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Path is an ordered sequence of POSIX path segments, always rooted at "/".
type Path string

// Root is the canonical path for the root container.
const Root Path = "/"

// FromURI parses the path component of a URL, percent-decoded, rooted at
// "/". Relative paths some clients send are tolerated by rooting them.
func FromURI(raw string) (Path, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	clean := path.Clean("/" + u.Path)
	return Path(clean), nil
}

// AsURI joins this path onto base's scheme and host, re-percent-encoding
// the path component.
func (p Path) AsURI(base string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	b.Path = path.Join("/", string(p))
	return b.String(), nil
}

// FromID maps an object ID to a Path: "0" is the root, anything else must
// already be an absolute path and is returned unchanged.
func FromID(id string) Path {
	if id == "0" {
		return Root
	}
	return Path(id)
}

// AsID is the inverse of FromID.
func (p Path) AsID() string {
	if p == Root {
		return "0"
	}
	return string(p)
}

// FromPath returns the object Path for an absolute filesystem path fsPath
// under root.
func FromPath(root, fsPath string) (Path, error) {
	rel, err := filepath.Rel(root, fsPath)
	if err != nil {
		return "", err
	}
	return Path("/" + filepath.ToSlash(rel)), nil
}

// AsPath resolves this object Path to an absolute filesystem path under
// root. The result is guaranteed to stay under root: path.Clean collapses
// any ".." segments before joining, so escaping the media root is not
// possible through this call.
func (p Path) AsPath(root string) string {
	clean := path.Clean("/" + string(p))
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}

// Parent returns the parent of p. The parent of "/" is "/" itself —
// intentionally not an error value — matching the root object's
// self-referential position at the top of the hierarchy.
func (p Path) Parent() Path {
	if p == Root {
		return Root
	}
	dir := path.Dir(string(p))
	return Path(dir)
}

// Base is the final path segment (the file or directory's own name).
func (p Path) Base() string {
	return path.Base(string(p))
}
