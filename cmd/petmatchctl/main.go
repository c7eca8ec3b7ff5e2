// Command petmatchctl runs petmatch operations from a terminal: a one-off
// match, a random pet, or offline sanitizing of model output.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
