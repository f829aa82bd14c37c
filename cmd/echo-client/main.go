// Command echo-client is a small CLI over the settings tree: it loads a
// JSON config document and answers path-shaped lookups against it,
// including the stateless flag the session layer consults when deciding
// whether to open a connect handshake for a given service.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/opensrf-go/gosrf/internal/domain/codec"
	"github.com/opensrf-go/gosrf/internal/infrastructure/settings"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON settings document")
	path := flag.String("path", "", "settings path to query, e.g. /apps/opensrf.echo/stateless")
	service := flag.String("service", "", "if set (and -path is not), print this service's stateless flag")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("echo-client: -config is required")
	}

	data, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("echo-client: read config: %v", err)
	}

	tree, err := settings.Load(data)
	if err != nil {
		log.Fatalf("echo-client: load config: %v", err)
	}

	switch {
	case *path != "":
		matches := tree.Find(*path)
		for _, m := range matches {
			fmt.Println(codec.MarshalForWire(m))
		}
	case *service != "":
		fmt.Println(tree.Stateless(*service))
	default:
		log.Fatal("echo-client: one of -path or -service is required")
	}
}
