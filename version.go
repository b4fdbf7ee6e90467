package main

import (
	"fmt"

	"github.com/fplboard/fplboard/internal/version"
)

// printVersion writes the injected version + commit information.
func printVersion() {
	fmt.Fprintln(stdOut, version.Full())
}
