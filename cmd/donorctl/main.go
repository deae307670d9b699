// Package main is the entry point for the donorctl operator CLI.
package main

import (
	"os"

	"github.com/kursadbilgin/donor-dispatch/cmd/donorctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
