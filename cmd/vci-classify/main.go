package main

import (
	"os"

	"github.com/vci-pathogenicity-calculator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
