// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/driftfile/driftfile/internal/config"
	"github.com/driftfile/driftfile/internal/store"
)

// migratorFactory is swappable in tests.
var migratorFactory = func(databaseURL string) (migrator, error) {
	return store.NewMigrator(databaseURL)
}

// migrator is the subset of store.Migrator the migrate commands use.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}

// NewMigrateCmd creates the migrate subcommand with up, down and status.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back or inspect the schema migrations embedded in the binary.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE:  runMigrateDown,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE:  runMigrateStatus,
	})

	return cmd
}

// openMigrator loads the config and builds a migrator for its database URL.
func openMigrator(cmd *cobra.Command) (migrator, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	m, err := migratorFactory(cfg.Database.URL)
	if err != nil {
		return nil, oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	return m, nil
}

func closeMigrator(cmd *cobra.Command, m migrator) {
	if err := m.Close(); err != nil {
		cmd.PrintErrln("warning: failed to close migrator:", err)
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(cmd, m)

	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "up").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(cmd, m)

	cmd.Println("Rolling back migrations...")
	if err := m.Down(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "down").Wrap(err)
	}

	cmd.Println("Rollback completed successfully")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(cmd, m)

	version, dirty, err := m.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "version").Wrap(err)
	}
	cmd.Printf("Current version: %d (dirty: %t)\n", version, dirty)

	applied, err := m.AppliedMigrations()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "applied").Wrap(err)
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "pending").Wrap(err)
	}

	cmd.Println("Applied:")
	printMigrations(cmd, applied)
	cmd.Println("Pending:")
	printMigrations(cmd, pending)
	return nil
}

func printMigrations(cmd *cobra.Command, versions []uint) {
	if len(versions) == 0 {
		cmd.Println("  (none)")
		return
	}
	for _, v := range versions {
		name, err := store.MigrationName(v)
		if err != nil {
			name = "(unknown)"
		}
		cmd.Printf("  %06d %s\n", v, name)
	}
}
