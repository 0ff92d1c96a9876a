package ssdp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNotifyAliveWithLocation(t *testing.T) {
	msg := formatNotify("upnp:rootdevice", "uuid:x::upnp:rootdevice", "ssdp:alive", 30*time.Second, "http://192.168.1.10:8200/device-description.xml")

	assert.Contains(t, msg, "NOTIFY * HTTP/1.1\r\n")
	assert.Contains(t, msg, "HOST: 239.255.255.250:1900\r\n")
	assert.Contains(t, msg, "NT: upnp:rootdevice\r\n")
	assert.Contains(t, msg, "NTS: ssdp:alive\r\n")
	assert.Contains(t, msg, "USN: uuid:x::upnp:rootdevice\r\n")
	assert.Contains(t, msg, "CACHE-CONTROL: max-age=30\r\n")
	assert.Contains(t, msg, "LOCATION: http://192.168.1.10:8200/device-description.xml\r\n")
}

func TestFormatNotifyByeHasNoLocation(t *testing.T) {
	msg := formatNotify("upnp:rootdevice", "uuid:x::upnp:rootdevice", "ssdp:byebye", 30*time.Second, "")

	assert.Contains(t, msg, "NTS: ssdp:byebye\r\n")
	assert.NotContains(t, msg, "CACHE-CONTROL")
	assert.NotContains(t, msg, "LOCATION")
}

func TestNotifierRunReturnsAfterStop(t *testing.T) {
	book := NewAddressBook(300 * time.Millisecond)
	n := NewNotifier(nil, map[string]string{"upnp:rootdevice": "uuid:x"}, 300*time.Millisecond, book)

	done := make(chan struct{})
	go func() {
		n.Run()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	n.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier did not stop")
	}
}
