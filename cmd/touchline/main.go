// Command touchline records match events and recalculates player minutes.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/touchline/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
