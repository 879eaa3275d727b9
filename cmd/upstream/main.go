// Command upstream is a small example HTTP origin for manually exercising
// the relay during local development; it is not part of the relay itself.
package main

import (
	"flag"
	"log"

	"github.com/relay/relay/internal/devupstream"
)

func main() {
	addr := flag.String("listen", ":8000", "address for the example upstream server to listen on")
	flag.Parse()

	log.Printf("starting upstream server on %s", *addr)
	if err := devupstream.Start(*addr); err != nil {
		log.Fatal(err)
	}
}
