package main

import (
	"os"

	"github.com/mverhage/bothive/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
