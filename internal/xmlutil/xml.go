// Package xmlutil builds, parses, template-fills and serializes the small
// namespaced XML documents used by the device description, DIDL-Lite and
// SOAP layers. It trades encoding/xml's static struct tags for a generic
// element tree, since the same handful of operations (build, fill-in-the-
// blanks, serialize) are applied to documents of several different shapes.
package xmlutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"sort"
)

// Prefixes is the fixed namespace-prefix table shared by every document
// this server emits or reads.
var Prefixes = map[string]string{
	"soap": "http://schemas.xmlsoap.org/soap/envelope/",
	"dc":   "http://purl.org/dc/elements/1.1/",
	"upnp": "urn:schemas-upnp-org:metadata-1-0/upnp/",
	"dlna": "urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/",
	"dev":  "urn:schemas-upnp-org:device-1-0",
	"ctrl": "urn:schemas-upnp-org:control-1-0",
	"srv":  "urn:schemas-upnp-org:service-1-0",
	"cd":   "urn:schemas-upnp-org:service:ContentDirectory:1",
}

var prefixByURI = func() map[string]string {
	m := make(map[string]string, len(Prefixes))
	for prefix, uri := range Prefixes {
		m[uri] = prefix
	}
	return m
}()

// Node is a namespace-aware XML element. Space holds the fully resolved
// namespace URI (empty for unnamespaced elements), never a prefix.
type Node struct {
	Space    string
	Local    string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// Attr is a namespaced attribute; Space is a resolved URI, as in Node.
type Attr struct {
	Space string
	Local string
	Value string
}

// MissingPlaceholder is returned by Fill when a requested placeholder name
// has no matching descendant element.
type MissingPlaceholder struct{ Name string }

func (e *MissingPlaceholder) Error() string {
	return fmt.Sprintf("xmlutil: no placeholder named %q", e.Name)
}

// MissingElement is returned by FindText when no descendant matches.
type MissingElement struct{ Name string }

func (e *MissingElement) Error() string {
	return fmt.Sprintf("xmlutil: no element named %q", e.Name)
}

// Build constructs an element in the namespace named by qname's prefix
// ("prefix:local"). Each entry in children is either a *Node, appended as a
// child element, or any other value, coerced with fmt.Sprint and assigned
// as the element's text content (the last scalar wins). attrs keys are
// local names in the element's own namespace, as produced by Build itself.
func Build(qname string, attrs map[string]string, children ...any) *Node {
	namespace, local := splitQName(qname)
	n := &Node{Space: namespace, Local: local}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attrs = append(n.Attrs, Attr{Space: namespace, Local: k, Value: attrs[k]})
	}

	for _, child := range children {
		if sub, ok := child.(*Node); ok {
			n.Children = append(n.Children, sub)
		} else {
			n.Text = fmt.Sprint(child)
		}
	}
	return n
}

func splitQName(qname string) (namespace, local string) {
	for i := 0; i < len(qname); i++ {
		if qname[i] == ':' {
			prefix := qname[:i]
			return Prefixes[prefix], qname[i+1:]
		}
	}
	return "", qname
}

// ParseFile reads and parses an XML document from fsys.
func ParseFile(fsys fs.FS, name string) (*Node, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a full XML document and returns its root element.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var stack []*Node
	var root *Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Space: t.Name.Space, Local: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.Attrs = append(n.Attrs, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			root = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if text := string(bytes.TrimSpace(t)); text != "" {
					top.Text += text
				}
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("xmlutil: empty document")
	}
	return root, nil
}

// Fill locates the first descendant whose local name equals each keyword
// in kv and replaces its text content.
func Fill(root *Node, kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, name := range keys {
		n := findDescendant(root, name)
		if n == nil {
			return &MissingPlaceholder{Name: name}
		}
		n.Text = kv[name]
	}
	return nil
}

// FindText returns the text of the first descendant matching local name,
// regardless of namespace, or an empty string if the node has no text.
func FindText(root *Node, local string) (string, error) {
	n := findDescendant(root, local)
	if n == nil {
		return "", &MissingElement{Name: local}
	}
	return n.Text, nil
}

// findDescendant performs a pre-order search of root's descendants
// (root itself excluded, matching ElementTree's ".//" semantics).
func findDescendant(root *Node, local string) *Node {
	for _, child := range root.Children {
		if child.Local == local {
			return child
		}
		if found := findDescendant(child, local); found != nil {
			return found
		}
	}
	return nil
}

// hasEmptyNamespaceDescendant reports whether any descendant (root
// excluded) carries the empty namespace.
func hasEmptyNamespaceDescendant(root *Node) bool {
	for _, child := range root.Children {
		if child.Space == "" {
			return true
		}
		if hasEmptyNamespaceDescendant(child) {
			return true
		}
	}
	return false
}

// Serialize renders root as a UTF-8 XML document with declaration. If root
// carries a namespace and no descendant is unnamespaced, that namespace is
// emitted as the default (prefix-less); otherwise every namespace uses its
// fixed prefix from Prefixes.
func Serialize(root *Node) (string, error) {
	defaultNS := ""
	if root.Space != "" && !hasEmptyNamespaceDescendant(root) {
		defaultNS = root.Space
	}

	used := map[string]bool{}
	collectNamespaces(root, defaultNS, used)

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	renderElement(&buf, root, defaultNS, used, true)
	return buf.String(), nil
}

func collectNamespaces(n *Node, defaultNS string, used map[string]bool) {
	if n.Space != "" && n.Space != defaultNS {
		used[n.Space] = true
	}
	for _, a := range n.Attrs {
		if a.Space != "" && a.Space != defaultNS {
			used[a.Space] = true
		}
	}
	for _, c := range n.Children {
		collectNamespaces(c, defaultNS, used)
	}
}

func renderElement(buf *bytes.Buffer, n *Node, defaultNS string, used map[string]bool, isRoot bool) {
	tag := qualify(n.Space, defaultNS, n.Local)
	buf.WriteByte('<')
	buf.WriteString(tag)

	if isRoot {
		if defaultNS != "" {
			fmt.Fprintf(buf, ` xmlns="%s"`, xmlEscapeAttr(defaultNS))
		}
		uris := make([]string, 0, len(used))
		for uri := range used {
			uris = append(uris, uri)
		}
		sort.Strings(uris)
		for _, uri := range uris {
			fmt.Fprintf(buf, ` xmlns:%s="%s"`, prefixByURI[uri], xmlEscapeAttr(uri))
		}
	}

	for _, a := range n.Attrs {
		aTag := qualify(a.Space, defaultNS, a.Local)
		fmt.Fprintf(buf, ` %s="%s"`, aTag, xmlEscapeAttr(a.Value))
	}

	if n.Text == "" && len(n.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	if n.Text != "" {
		xml.EscapeText(buf, []byte(n.Text))
	}
	for _, c := range n.Children {
		renderElement(buf, c, defaultNS, used, false)
	}
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteByte('>')
}

func qualify(space, defaultNS, local string) string {
	if space == "" || space == defaultNS {
		return local
	}
	if prefix, ok := prefixByURI[space]; ok {
		return prefix + ":" + local
	}
	return local
}

func xmlEscapeAttr(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
