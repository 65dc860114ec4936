package main

import (
	"os"

	"github.com/solatis/beacon/cmd/beacon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
