// Command linkfield edits a link field stored in a local data directory.
package main

import (
	"os"

	"github.com/mesh-intelligence/linkfield/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
