package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSCPDFiles(t *testing.T) {
	for _, name := range []string{"content-directory", "connection-manager", "media-receiver-registrar"} {
		data, err := Static(name)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<scpd")
	}
}

func TestRenderDeviceDescription(t *testing.T) {
	out, err := Render("device-description", map[string]string{
		"friendlyName": "Living Room",
		"UDN":          "uuid:abc-123",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Living Room")
	assert.Contains(t, out, "uuid:abc-123")
}

func TestRenderFault(t *testing.T) {
	out, err := Render("fault", map[string]string{
		"errorCode":        "701",
		"errorDescription": "No such object",
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "701"))
	assert.True(t, strings.Contains(out, "No such object"))
}

func TestRenderBrowseResponse(t *testing.T) {
	out, err := Render("browse-response", map[string]string{
		"Result":         "<DIDL-Lite/>",
		"NumberReturned": "2",
		"TotalMatches":   "2",
		"UpdateID":       "1",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;DIDL-Lite/&gt;")
	assert.Contains(t, out, "<NumberReturned>2</NumberReturned>")
}
