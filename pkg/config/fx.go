package config

import (
	"os"

	"github.com/pseudomuto/birdwatch/pkg/consts"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	// Function attempts to load the configuration from birdwatch.yaml if it
	// exists. The config file is entirely optional, so a missing file yields
	// the defaults rather than an error.
	func() (*Config, error) {
		if _, err := os.Stat(consts.ToolConfigFile); os.IsNotExist(err) {
			return Default(), nil
		}

		return LoadConfigFile(consts.ToolConfigFile)
	},
))
