// Command rowset stores schema-checked records in spreadsheet-style sheets.
package main

import (
	"os"

	"github.com/mesh-intelligence/rowset/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
