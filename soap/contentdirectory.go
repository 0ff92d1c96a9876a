package soap

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/anacrolix/log"

	"github.com/maprosper/dlnasrv/didl"
	"github.com/maprosper/dlnasrv/internal/httpserver"
	"github.com/maprosper/dlnasrv/internal/xmlutil"
	"github.com/maprosper/dlnasrv/templates"
)

// ContentDirectory answers POST requests against the ContentDirectory
// control URL: parsing SOAPACTION, dispatching Browse/Search/
// GetSearchCapabilities, and rendering either a response envelope or a
// fault.
type ContentDirectory struct {
	MediaRoot string
	BaseURL   string
}

func (cd *ContentDirectory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		cd.sendFault(w, InvalidArgs)
		return
	}

	envelope, err := xmlutil.Parse(bytes.NewReader(body))
	if err != nil {
		cd.sendFault(w, InvalidArgs)
		return
	}

	action := parseSOAPAction(r.Header.Get("SOAPACTION"))
	switch httpserver.NormalizeVerb(action) {
	case "browse":
		cd.browseOrSearch(w, envelope, didl.Browse, "browse-response")
	case "search":
		cd.browseOrSearch(w, envelope, didl.Search, "search-response")
	case "getsearchcapabilities":
		cd.sendStatic(w, "search")
	default:
		log.Printf("soap: unknown action %q", action)
		cd.sendFault(w, InvalidAction)
	}
}

// parseSOAPAction extracts the action name from a SOAPACTION header of
// the form `"<service-urn>#<action>"`.
func parseSOAPAction(header string) string {
	header = strings.Trim(header, `"`)
	if i := strings.LastIndexByte(header, '#'); i >= 0 {
		return header[i+1:]
	}
	return header
}

func (cd *ContentDirectory) browseOrSearch(w http.ResponseWriter, envelope *xmlutil.Node, mode didl.Mode, template string) {
	id, err := xmlutil.FindText(envelope, "ObjectID")
	if err != nil {
		id, err = xmlutil.FindText(envelope, "ContainerID")
	}
	if err != nil {
		cd.sendFault(w, InvalidArgs)
		return
	}

	start, errStart := parseIndex(envelope, "StartingIndex")
	count, errCount := parseIndex(envelope, "RequestedCount")
	if errStart != nil || errCount != nil {
		cd.sendFault(w, InvalidArgs)
		return
	}

	object := didl.New(cd.MediaRoot, cd.BaseURL, id, mode)
	if !pathExists(object) {
		cd.sendFault(w, NoSuchObject)
		return
	}

	children, err := object.Children()
	if err != nil {
		log.Printf("soap: %s failed for %q: %s", mode, id, err)
		cd.sendFault(w, ActionFailed)
		return
	}

	window := sliceWindow(children, start, count)
	elements := make([]any, len(window))
	for i, child := range window {
		el, err := child.Element()
		if err != nil {
			log.Printf("soap: element() failed for %q: %s", child.ID(), err)
			cd.sendFault(w, ActionFailed)
			return
		}
		elements[i] = el
	}

	didlLite := xmlutil.Build("dlna:DIDL-Lite", nil, elements...)
	result, err := xmlutil.Serialize(didlLite)
	if err != nil {
		cd.sendFault(w, ActionFailed)
		return
	}

	resp, err := templates.Render(template, map[string]string{
		"Result":         result,
		"UpdateID":       strconv.FormatInt(object.Update(), 10),
		"TotalMatches":   strconv.Itoa(len(children)),
		"NumberReturned": strconv.Itoa(len(window)),
	})
	if err != nil {
		cd.sendFault(w, ActionFailed)
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=\"utf-8\"")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, resp)
}

func parseIndex(envelope *xmlutil.Node, name string) (int, error) {
	s, err := xmlutil.FindText(envelope, name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func pathExists(o *didl.Object) bool {
	_, err := os.Stat(o.Path())
	return err == nil
}

// sliceWindow clamps [start, start+count) to children's bounds.
func sliceWindow(children []*didl.Object, start, count int) []*didl.Object {
	if start < 0 {
		start = 0
	}
	if count < 0 {
		count = 0
	}
	if start >= len(children) {
		return nil
	}
	end := start + count
	if end > len(children) {
		end = len(children)
	}
	return children[start:end]
}

func (cd *ContentDirectory) sendStatic(w http.ResponseWriter, name string) {
	body, err := templates.Static(name)
	if err != nil {
		cd.sendFault(w, ActionFailed)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=\"utf-8\"")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (cd *ContentDirectory) sendFault(w http.ResponseWriter, status Status) {
	log.Printf("soap: fault %d %s", status.Code, status.Phrase)
	body, err := templates.Render("fault", map[string]string{
		"errorCode":        strconv.Itoa(status.Code),
		"errorDescription": status.Phrase,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("%d %s", status.Code, status.Phrase), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=\"utf-8\"")
	w.WriteHeader(http.StatusInternalServerError)
	io.WriteString(w, body)
}
