// Package httpserver is the threaded HTTP/1.1 engine: a TCP listener with
// SO_REUSEPORT, byte-range GET with zero-copy transfer, and a small
// verb-dispatch table that normalizes incoming method names the way the
// reference implementation's "do_<verb>" handlers did.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// Listen opens a TCP listener with SO_REUSEPORT set, matching the spec's
// "SO_REUSEPORT mandatory" socket requirement (§4.3). addr may specify
// port 0 for an OS-assigned port.
func Listen(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(context.Background(), "tcp", addr)
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// NormalizeVerb turns an incoming HTTP method into the identifier a
// do_<verb> style handler table is keyed by: non-alphanumeric runs become
// "_", then the whole thing is lowercased ("M-SEARCH" -> "m_search").
func NormalizeVerb(method string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(method, "_"))
}

// VerbRouter dispatches requests to a handler chosen by normalized method
// name. Methods with no registered handler fall back to Fallback, or a
// plain 501 if Fallback is nil — mirroring the reference handler's
// "missing do_<verb> sends 501" rule, with SSDP's all-unknown-verbs-are-
// a-no-op behavior expressed by installing a no-op Fallback.
type VerbRouter struct {
	handlers map[string]http.HandlerFunc
	Fallback http.HandlerFunc
}

// NewVerbRouter returns an empty VerbRouter.
func NewVerbRouter() *VerbRouter {
	return &VerbRouter{handlers: make(map[string]http.HandlerFunc)}
}

// Handle registers h for the given HTTP verb (e.g. "GET", "SUBSCRIBE").
func (v *VerbRouter) Handle(verb string, h http.HandlerFunc) {
	v.handlers[NormalizeVerb(verb)] = h
}

func (v *VerbRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := v.handlers[NormalizeVerb(r.Method)]; ok {
		h(w, r)
		return
	}
	if v.Fallback != nil {
		v.Fallback(w, r)
		return
	}
	http.Error(w, "unsupported method", http.StatusNotImplemented)
}
