package main

import (
	"os"

	"github.com/minibatch/minibatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
