package ssdp

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/anacrolix/log"
)

// UserAgent is the fixed SERVER header value NOTIFY messages advertise.
// Its exact text has no bearing on conformance.
const UserAgent = "Linux UPnP/1.0 dlnasrv/1"

// notifyPort is the fixed source port convention real DLNA servers use
// for outgoing NOTIFY datagrams, carried over from the reference
// implementation.
const notifyPort = 50927

// Notifier periodically advertises this device's presence with NOTIFY
// ssdp:alive bursts, and announces ssdp:byebye on start and stop.
type Notifier struct {
	Location *url.URL
	Targets  map[string]string
	Timeout  time.Duration
	Book     *AddressBook
	Logger   log.Logger

	stop chan struct{}
	done chan struct{}
}

// NewNotifier constructs a Notifier; call Run to start it.
func NewNotifier(location *url.URL, targets map[string]string, timeout time.Duration, book *AddressBook) *Notifier {
	return &Notifier{
		Location: location,
		Targets:  targets,
		Timeout:  timeout,
		Book:     book,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks, sending BYE, then alternating ALIVE bursts with Timeout/3
// waits, until Stop is called — at which point it sends a final BYE
// burst before returning.
func (n *Notifier) Run() {
	defer close(n.done)

	n.burst("ssdp:byebye")
	ticker := time.NewTicker(n.Timeout / 3)
	defer ticker.Stop()

	for {
		n.burst("ssdp:alive")
		select {
		case <-n.stop:
			n.burst("ssdp:byebye")
			return
		case <-ticker.C:
		}
	}
}

// Stop signals Run to send its final BYE burst and return, blocking
// until it has.
func (n *Notifier) Stop() {
	close(n.stop)
	<-n.done
}

// burst ages the address book, then sends every target NOTIFY twice
// (200ms apart) from every known address, defending against UDP loss.
func (n *Notifier) burst(nts string) {
	n.Book.Expire()
	for i := 0; i < 2; i++ {
		for _, address := range n.Book.Addresses() {
			for target, usn := range n.Targets {
				n.send(target, usn, nts, address)
			}
		}
		if i == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

func (n *Notifier) send(target, usn, nts, address string) {
	conn, err := n.dial(address)
	if err != nil {
		log.Printf("ssdp: notify dial from %s failed: %s", address, err)
		return
	}
	defer conn.Close()

	var location string
	if nts == "ssdp:alive" && address != Sentinel {
		location = n.locationFor(address)
	}
	msg := formatNotify(target, usn, nts, n.Timeout, location)
	if _, err := conn.Write([]byte(msg)); err != nil {
		log.Printf("ssdp: notify write failed: %s", err)
	}
}

// formatNotify renders a single NOTIFY datagram. location is empty for
// ssdp:byebye and for ssdp:alive sourced from the Sentinel address, in
// which case CACHE-CONTROL/LOCATION are omitted entirely.
func formatNotify(target, usn, nts string, timeout time.Duration, location string) string {
	var extra string
	if location != "" {
		extra = fmt.Sprintf("CACHE-CONTROL: max-age=%d\r\nLOCATION: %s\r\n", int(timeout.Seconds()), location)
	}
	return fmt.Sprintf(
		"NOTIFY * HTTP/1.1\r\nHOST: %s\r\nSERVER: %s\r\nNT: %s\r\nNTS: %s\r\nUSN: %s\r\n%s\r\n",
		GroupAddress, UserAgent, target, nts, usn, extra,
	)
}

// dial binds a UDP socket sourced from address (or the system default
// when address is Sentinel) to the multicast group.
func (n *Notifier) dial(address string) (*net.UDPConn, error) {
	group, err := net.ResolveUDPAddr("udp4", GroupAddress)
	if err != nil {
		return nil, err
	}
	var laddr *net.UDPAddr
	if address != Sentinel {
		laddr = &net.UDPAddr{IP: net.ParseIP(address), Port: notifyPort}
	}
	return net.DialUDP("udp4", laddr, group)
}

func (n *Notifier) locationFor(address string) string {
	u := *n.Location
	u.Host = net.JoinHostPort(address, u.Port())
	return u.String()
}
