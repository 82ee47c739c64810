package main

import (
	"os"

	"github.com/evfleet/chargesim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
