// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/resolvd-dev/resolvd/internal/ticket"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <ticket.json>",
		Short: "Run the resolution loop on a ticket file",
		Long:  "Reads a ticket from a JSON file, runs the resolution loop, and prints the evidence bundle as JSON on stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if model, _ := cmd.Flags().GetString("model"); model != "" {
				cfg.Models.Default = model
			}
			if maxIter, _ := cmd.Flags().GetInt("max-iterations"); maxIter > 0 {
				cfg.Agent.MaxIterations = maxIter
			}

			t, err := readTicket(args[0])
			if err != nil {
				return err
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.loop.Run(cmd.Context(), t)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().String("model", "", "reasoner in provider/model form (overrides config)")
	cmd.Flags().Int("max-iterations", 0, "iteration budget for this run (overrides config)")

	return cmd
}

func readTicket(path string) (*ticket.Ticket, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeCLIInputInvalid, "reading ticket file %s", path)
	}

	var t ticket.Ticket
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeCLIInputInvalid, "parsing ticket file %s", path)
	}
	if t.ID == "" {
		return nil, resolvderr.Errorf(resolvderr.CodeCLIInputInvalid, "ticket file %s: missing ticket id", path)
	}
	return &t, nil
}
