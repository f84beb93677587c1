// Command openalexbot imports scholarly works from OpenAlex into Wikidata.
package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/openalexbot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
