package main

import (
	"os"

	"github.com/clinix-health/mobile-core/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
