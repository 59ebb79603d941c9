package main

import (
	"os"

	"github.com/Chative-support-router/server/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
