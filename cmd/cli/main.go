package main

import (
	"os"

	"github.com/bookhub-dev/bookhub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
