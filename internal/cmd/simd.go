package cmd

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/clinix-health/mobile-core/internal/config"
	"github.com/clinix-health/mobile-core/pkg/sim"
)

// SimdCommand serves the embedded backend over HTTP, so the mobile
// client (or curl) can be pointed at a local stand-in for the live
// API during development.
type SimdCommand struct {
	Log hclog.Logger
	UI  cli.Ui

	flagAddr   string
	flagConfig string
}

func (c *SimdCommand) Synopsis() string {
	return "Serve the simulated backend over HTTP"
}

func (c *SimdCommand) Help() string {
	return `Usage: clinix simd [-addr=:8600] [-config=clinix.hcl]

  Serve the simulated Clinix backend over HTTP. The simulator starts
  seeded with the demo dataset and answers the same routes, with the
  same response shapes, as the live API.
`
}

func (c *SimdCommand) flags() *flag.FlagSet {
	f := flag.NewFlagSet("simd", flag.ContinueOnError)
	f.StringVar(&c.flagAddr, "addr", ":8600", "listen address")
	f.StringVar(&c.flagConfig, "config", "", "path to an HCL config file")
	return f
}

func (c *SimdCommand) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	simCfg := sim.DefaultConfig()
	if c.flagConfig != "" {
		cfg, err := config.Load(c.flagConfig)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		simCfg = cfg.SimConfig()
	}
	simCfg.Logger = c.Log

	backend, err := sim.NewBackend(simCfg)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error building backend: %v", err))
		return 1
	}

	c.Log.Info("simulated backend listening", "addr", c.flagAddr, "latency", simCfg.Latency)
	if err := http.ListenAndServe(c.flagAddr, backend); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	return 0
}
