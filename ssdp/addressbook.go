// Package ssdp implements the SSDP discovery layer: a UDP multicast
// listener that answers NOTIFY/M-SEARCH traffic (the SSDP server) and a
// companion notifier that periodically advertises the device (the SSDP
// notifier), sharing a single address book between them.
package ssdp

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/anacrolix/generics"
)

// Sentinel is the address book's placeholder entry for "no address
// learned yet" — used verbatim as a NOTIFY source and suppressed from
// iteration once a real address is known.
const Sentinel = "0.0.0.0"

type addrEntry struct {
	expiry time.Time
	packed uint32
}

// AddressBook is the mutex-guarded map of known local addresses this
// device has been reached at, each carrying an expiry. It always
// contains at least Sentinel.
type AddressBook struct {
	timeout time.Duration
	entries generics.SyncMap[string, addrEntry]
}

// NewAddressBook seeds the book with Sentinel (infinite expiry).
func NewAddressBook(timeout time.Duration) *AddressBook {
	b := &AddressBook{timeout: timeout}
	b.entries.Store(Sentinel, addrEntry{expiry: time.Time{}})
	return b
}

func pack(address string) (uint32, bool) {
	ip := net.ParseIP(address)
	if ip == nil {
		return 0, false
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(ip4), true
}

// Add records address as reachable, extending its expiry to now+timeout.
// The Sentinel entry's expiry is never touched by Add.
func (b *AddressBook) Add(address string) {
	if address == Sentinel {
		return
	}
	packed, ok := pack(address)
	if !ok {
		return
	}
	b.entries.Store(address, addrEntry{expiry: time.Now().Add(b.timeout), packed: packed})
}

// Expire removes every entry (other than Sentinel) whose expiry has
// passed.
func (b *AddressBook) Expire() {
	var stale []string
	now := time.Now()
	b.entries.Range(func(address string, e addrEntry) bool {
		if address != Sentinel && now.After(e.expiry) {
			stale = append(stale, address)
		}
		return true
	})
	for _, address := range stale {
		b.entries.Delete(address)
	}
}

// Addresses returns the known addresses, suppressing Sentinel whenever a
// real address is also known.
func (b *AddressBook) Addresses() []string {
	var all []string
	b.entries.Range(func(address string, _ addrEntry) bool {
		all = append(all, address)
		return true
	})
	if len(all) <= 1 {
		return all
	}
	out := all[:0]
	for _, address := range all {
		if address != Sentinel {
			out = append(out, address)
		}
	}
	return out
}

// Select picks the known address whose packed form has the smallest XOR
// distance to client's packed form — a cheap same-subnet heuristic that
// needs no netmask introspection. Falls back to Sentinel if nothing
// matches or client doesn't parse.
func (b *AddressBook) Select(client string) string {
	clientPacked, ok := pack(client)
	if !ok {
		return Sentinel
	}
	best := Sentinel
	var bestDist uint32
	found := false
	for _, address := range b.Addresses() {
		e, ok := b.entries.Load(address)
		if !ok {
			continue
		}
		dist := e.packed ^ clientPacked
		if !found || dist < bestDist {
			bestDist = dist
			best = address
			found = true
		}
	}
	return best
}
