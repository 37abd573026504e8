package main

import (
	"os"

	pearlcmder "github.com/papercomputeco/pearl/cmd/pearl"
)

func main() {
	cmd := pearlcmder.NewPearlCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
