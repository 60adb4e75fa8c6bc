// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/tastegraph/internal/app"
	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/logging"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// cli carries the persistent flags shared by every command.
type cli struct {
	out        io.Writer
	configPath string
	output     string
	logLevel   string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out, output: outputText}

	root := &cobra.Command{
		Use:   "tastectl",
		Short: "Tastegraph maintenance CLI",
		Long: `tastectl runs Tastegraph maintenance operations in process, using the
same configuration as the server (defaults, config.yaml or CONFIG_PATH, then
environment variables).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.output != outputText && c.output != outputJSON {
				return fmt.Errorf("--output must be %s or %s, got %q", outputText, outputJSON, c.output)
			}
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Config file (defaults to CONFIG_PATH or config.yaml)")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", c.output, "Output format: text or json")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		c.sweepCmd(),
		c.refreshCmd(),
		c.cleanupCmd(),
		c.compatCmd(),
		c.statsCmd(),
		c.configCmd(),
		c.fixtureCmd(),
		c.versionCmd(),
	)
	return root
}

// loadConfig loads and validates the configuration the way the server does.
func (c *cli) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		if !logging.ValidLevel(c.logLevel) {
			return nil, fmt.Errorf("invalid --log-level %q", c.logLevel)
		}
		cfg.Logging.Level = c.logLevel
	}
	return cfg, nil
}

// withApp builds the application, runs fn and closes everything afterwards.
func (c *cli) withApp(ctx context.Context, fn func(*app.App) error) (err error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging)
	defer func() { _ = logging.Close() }() //nolint:errcheck // best effort on exit

	a, err := app.Build(ctx, cfg, logging.Logger())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

// print renders v as indented JSON, or calls text for the text format.
func (c *cli) print(v any, text func(io.Writer)) error {
	if c.output == outputJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(c.out)
	return nil
}

func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q: must be a positive integer", arg)
	}
	return id, nil
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.print(map[string]string{"version": app.Version}, func(w io.Writer) {
				fmt.Fprintln(w, app.Version)
			})
		},
	}
}
