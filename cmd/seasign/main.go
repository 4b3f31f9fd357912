// Command seasign computes type signatures for resolved Seahorse namespace
// trees.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/seasign/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		os.Exit(cli.ExitSuccess)
	}

	// Commands report their own failures as ExitErrors; anything else is a
	// usage error from cobra.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
