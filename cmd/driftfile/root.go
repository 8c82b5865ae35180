// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the DriftFile CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driftfile",
		Short: "DriftFile - passwordless authentication service",
		Long: `DriftFile serves the passwordless authentication API for the DriftFile
file-storage app: email one-time codes, cookie sessions and role-based
redirects, backed by PostgreSQL.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
