package dms

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anacrolix/generics"
	"github.com/anacrolix/log"
	"github.com/google/uuid"

	"github.com/maprosper/dlnasrv/didl"
	"github.com/maprosper/dlnasrv/internal/httpserver"
	"github.com/maprosper/dlnasrv/soap"
	"github.com/maprosper/dlnasrv/templates"
)

// subscription is the best-effort record kept for a SUBSCRIBE request; no
// real event delivery is attempted beyond the single unsolicited NOTIFY
// the spec describes (§4.3, §9 "event subscription" design note).
type subscription struct {
	callback string
	timeout  string
}

// subscriptions is the coarse-grained guarded map backing the SUBSCRIBE
// stub (§5 "subscription map ... acceptable to be coarse-grained").
var subscriptions generics.SyncMap[string, subscription]

// buildRouter wires the dispatch table of spec.md §4.3: GET handlers for
// the device description and static service XML, range GET for
// /media/<rel>, SOAP POST for the ContentDirectory control URL, and the
// SUBSCRIBE stub. Every other method/path combination falls through to a
// plain 400, matching the table's "anything else -> 400/400" row.
func (s *Server) buildRouter() http.Handler {
	mux := http.NewServeMux()

	cd := &soap.ContentDirectory{MediaRoot: s.cfg.MediaRoot, BaseURL: s.baseURL}

	mux.HandleFunc("/device-description.xml", s.deviceDescriptionHandler())
	mux.HandleFunc("/connection-manager.xml", staticServiceHandler("connection-manager"))
	mux.HandleFunc("/content-directory.xml", s.contentDirectoryHandler(cd))
	mux.HandleFunc("/media-receiver-registrar.xml", staticServiceHandler("media-receiver-registrar"))
	mux.HandleFunc("/media/", s.mediaHandler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})
	return mux
}

// deviceDescriptionHandler serves the device description with
// friendlyName/UDN filled in on GET, 400 otherwise.
func (s *Server) deviceDescriptionHandler() http.HandlerFunc {
	render := func(w http.ResponseWriter, r *http.Request) {
		body, err := templates.Render("device-description", map[string]string{
			"friendlyName": s.cfg.FriendlyName,
			"UDN":          s.UDN(),
		})
		if err != nil {
			log.Printf("dms: device description: %s", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeText(w, body, `text/xml; charset="utf-8"`)
	}
	router := httpserver.NewVerbRouter()
	router.Handle("GET", render)
	router.Handle("HEAD", render)
	router.Fallback = badRequest
	return router.ServeHTTP
}

// staticServiceHandler serves an SCPD document unmodified on GET, 400 on
// every other verb — the "serve static variant file" row of §4.3's table.
func staticServiceHandler(name string) http.HandlerFunc {
	serve := func(w http.ResponseWriter, r *http.Request) {
		body, err := templates.Static(name)
		if err != nil {
			log.Printf("dms: static template %q: %s", name, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
	router := httpserver.NewVerbRouter()
	router.Handle("GET", serve)
	router.Handle("HEAD", serve)
	router.Fallback = badRequest
	return router.ServeHTTP
}

// contentDirectoryHandler routes GET to the static SCPD (shared URL with
// the control endpoint, per §4.3's table), POST to the SOAP engine, and
// SUBSCRIBE to the event stub.
func (s *Server) contentDirectoryHandler(cd *soap.ContentDirectory) http.HandlerFunc {
	router := httpserver.NewVerbRouter()
	router.Handle("GET", func(w http.ResponseWriter, r *http.Request) {
		body, err := templates.Static("content-directory")
		if err != nil {
			log.Printf("dms: static template content-directory: %s", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})
	router.Handle("POST", cd.ServeHTTP)
	router.Handle("SUBSCRIBE", subscribeHandler)
	router.Fallback = badRequest
	return router.ServeHTTP
}

// mediaHandler serves /media/<rel> as a range GET against
// <media-root>/<rel>, 404 for anything missing or not a plain file, 400
// for non-GET/HEAD verbs.
func (s *Server) mediaHandler() http.HandlerFunc {
	serve := func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, "/media/")
		obj := didl.New(s.cfg.MediaRoot, s.baseURL, "/"+rel, didl.Browse)
		fi, err := os.Stat(obj.Path())
		if err != nil || fi.IsDir() {
			http.NotFound(w, r)
			return
		}
		mime, err := obj.MIME()
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if err := httpserver.ServeFile(w, r, obj.Path(), mime); err != nil {
			log.Printf("dms: serving %q: %s", obj.Path(), err)
		}
	}
	router := httpserver.NewVerbRouter()
	router.Handle("GET", serve)
	router.Handle("HEAD", serve)
	router.Fallback = badRequest
	return router.ServeHTTP
}

// subscribeHandler answers SUBSCRIBE with 200, an echoed or generated SID
// and the echoed Timeout, then best-effort posts a single unsolicited
// NOTIFY carrying an empty propertyset to the Callback URL. Real event
// delivery is out of scope (spec.md §4.3, §9).
func subscribeHandler(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get("SID")
	if sid == "" {
		sid = "uuid:" + uuid.NewString()
	}
	timeout := r.Header.Get("TIMEOUT")
	if timeout == "" {
		timeout = "Second-1800"
	}
	callback := strings.Trim(r.Header.Get("CALLBACK"), "<>")

	subscriptions.Store(sid, subscription{callback: callback, timeout: timeout})

	w.Header().Set("SID", sid)
	w.Header().Set("TIMEOUT", timeout)
	w.WriteHeader(http.StatusOK)

	if callback != "" {
		go notifyCallback(callback, sid)
	}
}

// notifyCallback posts the stub's single empty propertyset NOTIFY. Errors
// are logged, never surfaced — the subscriber relationship is best-effort.
func notifyCallback(callback, sid string) {
	body := `<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0"></e:propertyset>`
	req, err := http.NewRequest("NOTIFY", callback, strings.NewReader(body))
	if err != nil {
		log.Printf("dms: subscribe notify: %s", err)
		return
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("NT", "upnp:event")
	req.Header.Set("NTS", "upnp:propchange")
	req.Header.Set("SID", sid)
	req.Header.Set("SEQ", "0")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("dms: subscribe notify to %s: %s", callback, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
}

func badRequest(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "bad request", http.StatusBadRequest)
}

func writeText(w http.ResponseWriter, body, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}
