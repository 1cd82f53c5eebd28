package main

import (
	"os"

	"github.com/gridloom/bessarb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
