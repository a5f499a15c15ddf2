// boxlog parses boxed and single-line log entries into typed records,
// queries them by field, and reports entries whose correlation partner
// never appeared.
package main

import (
	"os"

	"github.com/ccollicutt/boxlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
