// Package cli wires the kalender subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"kalender/internal/config"
	appLog "kalender/internal/log"
)

const defaultConfigPath = "kalender.yaml"

// NewApp builds the kalender command line application.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "kalender",
		Usage: "Keep a small calendar and move it in and out of .ics files.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				EnvVars: []string{"KALENDER_CONFIG"},
				Usage:   "path to the YAML config file; created with defaults when missing",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Usage:   "debug, info, warn or error (overrides the config file)",
			},
		},
		Before: func(c *cli.Context) error {
			if lvl := c.String("log-level"); lvl != "" {
				appLog.SetLevel(appLog.ParseLevel(lvl))
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			exportCommand(),
			importCommand(),
			snapshotCommand(),
		},
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

// loadConfig reads the config named by --config. The file's log level
// applies unless --log-level was given.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if c.String("log-level") == "" {
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	}
	return cfg, nil
}
