// Package main provides a developer CLI that runs actuator selection against
// a YAML catalog without a Zeebe broker.
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
