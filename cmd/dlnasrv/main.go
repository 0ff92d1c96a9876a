// Command dlnasrv runs a filesystem-backed DLNA/UPnP AV media server:
// it advertises itself over SSDP and serves the given media directory
// over HTTP until interrupted.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/anacrolix/log"
	"github.com/spf13/pflag"

	"github.com/maprosper/dlnasrv/dms"
)

func main() {
	hostname, _ := os.Hostname()

	address := pflag.StringP("address", "a", "", "address the server should bind to")
	port := pflag.IntP("port", "p", 0, "port the server should bind to (0 picks one)")
	media := pflag.StringP("media", "m", ".", "path the server should serve")
	name := pflag.StringP("name", "n", hostname, "display name of the server")
	pflag.Parse()

	s, err := dms.New(dms.Config{
		Address:      *address,
		Port:         *port,
		MediaRoot:    *media,
		FriendlyName: *name,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Printf("dlnasrv: serving %q as %q at %s", *media, *name, s.BaseURL())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Print("dlnasrv: shutting down")
		s.Close()
	}()

	if err := s.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
