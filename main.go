package main

import (
	"os"

	"github.com/wpforge/wpforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
