package cmd

import (
	"github.com/mitchellh/cli"

	"github.com/clinix-health/mobile-core/internal/version"
)

// VersionCommand prints the build version.
type VersionCommand struct {
	UI cli.Ui
}

func (c *VersionCommand) Synopsis() string {
	return "Print the version"
}

func (c *VersionCommand) Help() string {
	return "Usage: clinix version\n"
}

func (c *VersionCommand) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
