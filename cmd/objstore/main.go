package main

import (
	"os"

	"github.com/charliek/objstore/internal/cli"
	"github.com/charliek/objstore/internal/domain"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(domain.GetExitCode(err))
	}
}
