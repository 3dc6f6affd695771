// Command codeup safely synchronizes a working branch with its upstream.
package main

import (
	"fmt"
	"os"

	"github.com/zackees/codeup/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
