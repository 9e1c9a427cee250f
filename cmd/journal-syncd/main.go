package main

import (
	"os"

	"github.com/c0deZ3R0/journal-sync/cmd/journal-syncd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
