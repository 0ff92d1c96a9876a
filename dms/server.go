// Package dms is the device facade: it wires the HTTP engine, the SOAP
// engine and the two SSDP halves into a single DLNA media server with a
// construct/run-forever/stop lifecycle.
package dms

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/anacrolix/log"
	"github.com/google/uuid"

	"github.com/maprosper/dlnasrv/internal/httpserver"
	"github.com/maprosper/dlnasrv/ssdp"
)

// services is the SSDP target set this device advertises and answers
// M-SEARCH for, beyond the synthetic "upnp:rootdevice" and UDN targets
// every UPnP root device carries.
var services = []string{
	"urn:schemas-upnp-org:device:MediaServer:1",
	"urn:schemas-upnp-org:service:ContentDirectory:1",
	"urn:schemas-upnp-org:service:ConnectionManager:1",
}

const ssdpTimeout = 30 * time.Second

// Config is the server's construction-time configuration.
type Config struct {
	Address      string // bind address for HTTP, e.g. "0.0.0.0"
	Port         int    // 0 picks an OS-assigned port
	MediaRoot    string
	FriendlyName string
	Interface    *net.Interface // SSDP multicast interface; nil = system default
}

// Server is a running (or ready-to-run) DLNA media server.
type Server struct {
	cfg     Config
	uuid    uuid.UUID
	baseURL string
	targets map[string]string

	listener  net.Listener
	http      *http.Server
	book      *ssdp.AddressBook
	ssdpConn  *net.UDPConn
	ssdpSrv   *ssdp.Server
	notifier  *ssdp.Notifier
	ssdpErrCh chan error
}

// New constructs a Server bound to cfg.Address/cfg.Port, but does not
// start serving — call Run for that.
func New(cfg Config) (*Server, error) {
	listener, err := httpserver.Listen(fmt.Sprintf("%s:%d", cfg.Address, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("dms: listen: %w", err)
	}

	tcpAddr := listener.Addr().(*net.TCPAddr)
	host := cfg.Address
	if host == "" || host == "0.0.0.0" {
		host = tcpAddr.IP.String()
	}
	baseURL := fmt.Sprintf("http://%s:%d", host, tcpAddr.Port)

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(baseURL))
	device := "uuid:" + id.String()

	targets := map[string]string{device: device}
	for _, t := range append(append([]string{}, services...), "upnp:rootdevice") {
		targets[t] = device + "::" + t
	}

	locURL, err := url.Parse(baseURL + "/device-description.xml")
	if err != nil {
		listener.Close()
		return nil, err
	}

	book := ssdp.NewAddressBook(ssdpTimeout)

	ssdpConn, pconn, err := ssdp.Listen(cfg.Interface)
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("dms: ssdp listen: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		uuid:     id,
		baseURL:  baseURL,
		targets:  targets,
		listener: listener,
		book:     book,
		ssdpConn: ssdpConn,
	}
	s.ssdpSrv = ssdp.NewServer(ssdpConn, pconn, locURL, targets, int(ssdpTimeout.Seconds()), book, log.Default)
	s.notifier = ssdp.NewNotifier(locURL, targets, ssdpTimeout, book)
	s.http = &http.Server{Handler: s.buildRouter()}
	return s, nil
}

// BaseURL is the device's own HTTP origin, e.g. "http://192.168.1.10:8200".
func (s *Server) BaseURL() string { return s.baseURL }

// UDN is the device's UUID-based unique device name, "uuid:<uuid>".
func (s *Server) UDN() string { return "uuid:" + s.uuid.String() }

// Run starts the SSDP notifier and the SSDP server in the background and
// blocks serving HTTP until Close is called.
func (s *Server) Run() error {
	go s.notifier.Run()

	s.ssdpErrCh = make(chan error, 1)
	go func() { s.ssdpErrCh <- s.ssdpSrv.Serve() }()

	err := s.http.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close stops the notifier first (sending the final BYE burst), then the
// SSDP server, then the HTTP listener — matching the spec's shutdown
// ordering.
func (s *Server) Close() error {
	s.notifier.Stop()
	s.ssdpSrv.Close()
	if s.ssdpErrCh != nil {
		<-s.ssdpErrCh
	}
	return s.http.Close()
}
