// Package didl implements the filesystem-backed DIDL-Lite object model:
// given a media root and an object ID, it can enumerate children and
// render DIDL-Lite container/item elements, deriving the UPnP class from
// the file's MIME type the way a libmagic-backed reference implementation
// would.
package didl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/maprosper/dlnasrv/internal/objectpath"
	"github.com/maprosper/dlnasrv/internal/xmlutil"
)

// Mode selects how a container's children are enumerated.
type Mode string

const (
	// Browse enumerates only the immediate children of a directory.
	Browse Mode = "browse"
	// Search enumerates the full subtree beneath a directory.
	Search Mode = "search"
)

// mediaClasses are the MIME major types a DLNA object may represent;
// anything else (text, application, ...) is excluded from enumeration.
var mediaClasses = map[string]bool{"image": true, "audio": true, "video": true}

// Object is a single DIDL-Lite node: a directory (container) or a media
// file (item) addressed relative to Root.
type Object struct {
	Root    string
	BaseURL string
	id      objectpath.Path
	Mode    Mode
}

// New constructs an Object for the given object ID.
func New(root, baseURL, id string, mode Mode) *Object {
	return &Object{Root: root, BaseURL: baseURL, id: objectpath.FromID(id), Mode: mode}
}

func newChild(parent *Object, id objectpath.Path) *Object {
	return &Object{Root: parent.Root, BaseURL: parent.BaseURL, id: id, Mode: Browse}
}

// ID is this object's DLNA object ID ("0" for the root).
func (o *Object) ID() string { return o.id.AsID() }

// ParentID is this object's parent's ID. The root's parent is the
// synthetic "-1" (see SPEC_FULL.md §5 — the distilled Python reference
// used "0", which the spec's REDESIGN FLAG corrects to "-1").
func (o *Object) ParentID() string {
	if o.id == objectpath.Root {
		return "-1"
	}
	return o.id.Parent().AsID()
}

// Path is this object's absolute filesystem path.
func (o *Object) Path() string {
	return o.id.AsPath(o.Root)
}

// IsDir reports whether this object is a container.
func (o *Object) IsDir() bool {
	fi, err := os.Stat(o.Path())
	return err == nil && fi.IsDir()
}

// MIME returns the object's full MIME type string (e.g. "video/mp4"),
// sniffed the way the Python reference used libmagic.
func (o *Object) MIME() (string, error) {
	mtype, err := mimetype.DetectFile(o.Path())
	if err != nil {
		return "", err
	}
	full := mtype.String()
	if i := strings.IndexByte(full, ';'); i >= 0 {
		full = strings.TrimSpace(full[:i])
	}
	return full, nil
}

// mimeClass is the MIME major type ("video", "audio", "image", ...).
func (o *Object) mimeClass() (string, error) {
	full, err := o.MIME()
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(full, '/'); i >= 0 {
		return full[:i], nil
	}
	return full, nil
}

// QName is the DIDL-Lite qualified tag name for this object.
func (o *Object) QName() string {
	if o.IsDir() {
		return "dlna:container"
	}
	return "dlna:item"
}

// UClass is the UPnP object class for this object.
func (o *Object) UClass() (string, error) {
	if o.IsDir() {
		return "object.container", nil
	}
	class, err := o.mimeClass()
	if err != nil {
		return "", err
	}
	return "object.item." + class + "Item", nil
}

// Update is the object's modification epoch: wall-clock time for the
// root, filesystem mtime (whole seconds) for everything else.
func (o *Object) Update() int64 {
	if o.id == objectpath.Root {
		return time.Now().Unix()
	}
	fi, err := os.Stat(o.Path())
	if err != nil {
		return 0
	}
	return fi.ModTime().Unix()
}

// Location is the absolute media URL for this object's file.
func (o *Object) Location() (string, error) {
	rel, err := objectpath.FromPath(o.Root, o.Path())
	if err != nil {
		return "", err
	}
	mediaPath := objectpath.Path("/media" + string(rel))
	return mediaPath.AsURI(o.BaseURL)
}

// satisfiesFilter reports whether a filesystem entry belongs in an
// enumeration: directories always qualify; files qualify only when their
// MIME major type is image, audio or video.
func satisfiesFilter(child *Object) bool {
	if child.IsDir() {
		return true
	}
	class, err := child.mimeClass()
	if err != nil {
		return false
	}
	return mediaClasses[class]
}

// Children returns this object's filtered enumeration: immediate entries
// in Browse mode, the full subtree in Search mode.
func (o *Object) Children() ([]*Object, error) {
	root := o.Path()
	var out []*Object

	if o.Mode == Search {
		err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
			if err != nil || p == root {
				return err
			}
			id, err := objectpath.FromPath(o.Root, p)
			if err != nil {
				return nil
			}
			child := newChild(o, id)
			if satisfiesFilter(child) {
				out = append(out, child)
			}
			return nil
		})
		sortByPath(out)
		return out, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		id, err := objectpath.FromPath(o.Root, filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		child := newChild(o, id)
		if satisfiesFilter(child) {
			out = append(out, child)
		}
	}
	return out, nil
}

func sortByPath(objs []*Object) {
	sort.Slice(objs, func(i, j int) bool { return objs[i].id < objs[j].id })
}

// Element renders this object as a DIDL-Lite <dlna:container> or
// <dlna:item> element.
func (o *Object) Element() (*xmlutil.Node, error) {
	attrs := map[string]string{"id": o.ID(), "parentID": o.ParentID()}

	if o.IsDir() {
		return xmlutil.Build("dlna:container", attrs,
			xmlutil.Build("upnp:class", nil, "object.container"),
			xmlutil.Build("dc:title", nil, o.id.Base()),
		), nil
	}

	uclass, err := o.UClass()
	if err != nil {
		return nil, err
	}
	mime, err := o.MIME()
	if err != nil {
		return nil, err
	}
	location, err := o.Location()
	if err != nil {
		return nil, err
	}

	return xmlutil.Build("dlna:item", attrs,
		xmlutil.Build("upnp:class", nil, uclass),
		xmlutil.Build("dc:title", nil, o.id.Base()),
		xmlutil.Build("dlna:res", map[string]string{
			"protocolInfo": fmt.Sprintf("http-get:*:%s:DLNA.ORG_OP=01", mime),
		}, location),
	), nil
}
