// Command schematic inspects layered configuration sources without a Go
// configuration type: it syntax-checks files and prints extends chains.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
