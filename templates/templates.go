// Package templates embeds the server's XML document bundle: SCPD
// descriptions served verbatim, and the small set of documents (device
// description, SOAP responses, SOAP fault) that have placeholder text
// elements filled in per request.
package templates

import (
	"embed"

	"github.com/maprosper/dlnasrv/internal/xmlutil"
)

//go:embed xml/*.xml
var FS embed.FS

// Static reads a template file unmodified, for documents with no
// placeholders (the three SCPD descriptions and the GetSearchCapabilities
// response).
func Static(name string) ([]byte, error) {
	return FS.ReadFile("xml/" + name + ".xml")
}

// Render parses the named template, fills in its placeholder text
// elements by local name, and serializes the result.
func Render(name string, kv map[string]string) (string, error) {
	node, err := xmlutil.ParseFile(FS, "xml/"+name+".xml")
	if err != nil {
		return "", err
	}
	if err := xmlutil.Fill(node, kv); err != nil {
		return "", err
	}
	return xmlutil.Serialize(node)
}
