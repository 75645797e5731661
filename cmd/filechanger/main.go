package main

import (
	"os"

	"github.com/filechanger/filechanger/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
