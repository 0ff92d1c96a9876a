package ssdp

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/anacrolix/log"
	"golang.org/x/net/ipv4"

	"github.com/maprosper/dlnasrv/internal/httpserver"
)

// GroupAddress is the SSDP multicast group and port.
const GroupAddress = "239.255.255.250:1900"

// Server is the SSDP discovery listener: it answers NOTIFY (to learn the
// device's own reachable addresses) and M-SEARCH (to advertise the
// device's location) on the SSDP multicast group.
type Server struct {
	// Location is the device description URL; its Host is rewritten per
	// response to the address chosen by the address book.
	Location *url.URL
	// Targets maps a search/notification target (e.g.
	// "upnp:rootdevice") to its USN value.
	Targets map[string]string
	Timeout int // seconds, used for CACHE-CONTROL max-age
	Book    *AddressBook
	Logger  log.Logger

	pconn *ipv4.PacketConn
	conn  net.PacketConn
}

// Listen joins the SSDP multicast group on iface (nil selects the
// system default interface for multicast).
func Listen(iface *net.Interface) (*net.UDPConn, *ipv4.PacketConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", GroupAddress)
	if err != nil {
		return nil, nil, err
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: udpAddr.Port})
	if err != nil {
		return nil, nil, err
	}
	p := ipv4.NewPacketConn(conn)
	if err := p.JoinGroup(iface, udpAddr); err != nil {
		conn.Close()
		return nil, nil, err
	}
	if err := p.SetControlMessage(ipv4.FlagDst|ipv4.FlagInterface, true); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, p, nil
}

// NewServer wires up a Server around an already-joined multicast
// connection.
func NewServer(conn *net.UDPConn, pconn *ipv4.PacketConn, location *url.URL, targets map[string]string, timeout int, book *AddressBook, logger log.Logger) *Server {
	return &Server{
		Location: location,
		Targets:  targets,
		Timeout:  timeout,
		Book:     book,
		Logger:   logger,
		conn:     conn,
		pconn:    pconn,
	}
}

// Serve reads datagrams until the connection is closed.
func (s *Server) Serve() error {
	buf := make([]byte, 2048)
	for {
		n, _, src, err := s.pconn.ReadFrom(buf)
		if err != nil {
			return err
		}
		udpSrc, ok := src.(*net.UDPAddr)
		if !ok {
			continue
		}
		s.handle(buf[:n], udpSrc)
	}
}

// Close shuts the underlying connection down, unblocking Serve.
func (s *Server) Close() error {
	return s.conn.Close()
}

func (s *Server) handle(data []byte, src *net.UDPAddr) {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		return
	}
	switch httpserver.NormalizeVerb(req.Method) {
	case "notify":
		s.doNotify(req, src)
	case "m_search":
		s.doMSearch(req, src)
	default:
		// every other verb is a no-op, matching the HTTP engine's
		// missing-do_<verb> rule expressed differently for SSDP.
	}
}

func (s *Server) doNotify(req *http.Request, src *net.UDPAddr) {
	usn := req.Header.Get("USN")
	for _, target := range s.Targets {
		if target == usn {
			s.Book.Add(src.IP.String())
			return
		}
	}
}

func (s *Server) doMSearch(req *http.Request, src *net.UDPAddr) {
	st := req.Header.Get("ST")
	switch {
	case st == "ssdp:all":
		for target := range s.Targets {
			s.reply(target, src)
		}
	default:
		if _, ok := s.Targets[st]; ok {
			s.reply(st, src)
		}
	}
}

func (s *Server) reply(target string, src *net.UDPAddr) {
	location := s.locationFor(s.Book.Select(src.IP.String()))
	resp := fmt.Sprintf(
		"HTTP/1.1 200 OK\r\nEXT: \r\nST: %s\r\nUSN: %s\r\nCACHE-CONTROL: max-age=%d\r\nLOCATION: %s\r\n\r\n",
		target, s.Targets[target], s.Timeout, location,
	)
	if _, err := s.conn.WriteTo([]byte(resp), src); err != nil {
		log.Printf("ssdp: m-search reply to %s failed: %s", src, err)
	}
}

func (s *Server) locationFor(address string) string {
	u := *s.Location
	u.Host = net.JoinHostPort(address, u.Port())
	return u.String()
}
