// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/resolvd-dev/resolvd/internal/config"
)

// NewRootCmd creates the root resolvd command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "resolvd",
		Short:         "resolvd: support-ticket resolution agent",
		Long:          "resolvd runs a tool-calling reasoning loop that gathers evidence for support tickets and returns a normalized evidence bundle.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogging(verbose)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newResolveCmd(),
		newServeCmd(),
		newIndexCmd(),
		newVersionCmd(),
	)

	return root
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig loads configuration from the --config flag or the first
// resolvd.yaml found in the standard locations. Defaults and RESOLVD_ env
// overrides apply either way.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = discoverConfig()
	}

	config.WarnInsecurePermissions(path)
	return config.Load(path)
}

func discoverConfig() string {
	candidates := []string{"resolvd.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "resolvd", "resolvd.yaml"))
	}
	candidates = append(candidates, "/etc/resolvd/resolvd.yaml")

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
