package ssdp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddressBookSentinelSuppressedWhenRealAddressKnown(t *testing.T) {
	book := NewAddressBook(30 * time.Second)
	assert.Equal(t, []string{Sentinel}, book.Addresses())

	book.Add("192.168.1.10")
	addrs := book.Addresses()
	assert.Equal(t, []string{"192.168.1.10"}, addrs)
}

func TestAddressBookExpire(t *testing.T) {
	book := NewAddressBook(-1 * time.Second)
	book.Add("192.168.1.10")
	book.Expire()
	assert.Equal(t, []string{Sentinel}, book.Addresses())
}

func TestAddressBookSelectClosest(t *testing.T) {
	book := NewAddressBook(30 * time.Second)
	book.Add("192.168.1.10")
	book.Add("10.0.0.5")

	assert.Equal(t, "192.168.1.10", book.Select("192.168.1.20"))
	assert.Equal(t, "10.0.0.5", book.Select("10.0.0.200"))
}

func TestAddressBookSelectFallsBackToSentinel(t *testing.T) {
	book := NewAddressBook(30 * time.Second)
	assert.Equal(t, Sentinel, book.Select("192.168.1.20"))
}
