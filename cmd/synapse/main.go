// Command synapse is a document reader that surfaces cross-document
// connections while you read.
package main

import (
	"os"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetWiring(newWiring())

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
