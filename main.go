package main

import (
	"os"

	"github.com/devcaliber/assistant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
