// Command schoolmesh runs the school-family assistant: `serve` starts the
// HTTP chat server, `ask` answers one question from the command line.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
