// Command redoscan reports regular expressions vulnerable to ReDoS.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes
const (
	exitOK       = 0
	exitFindings = 1
	exitError    = 2
)

// errFindings signals that the command ran but flagged patterns.
var errFindings = errors.New("vulnerable or unanalyzable patterns found")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errFindings):
		return exitFindings
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitError
}
