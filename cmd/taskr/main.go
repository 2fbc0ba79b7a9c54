package main

import (
	"os"

	"taskr/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
