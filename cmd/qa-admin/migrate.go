package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage schema migrations",
	Long: `Apply, roll back or inspect schema migrations.

Examples:
  qa-admin migrate up
  qa-admin migrate down
  qa-admin migrate goto 1
  qa-admin migrate version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return e.db.RunMigrations(e.cfg.Server.MigrationsPath)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return e.db.MigrateDown(e.cfg.Server.MigrationsPath)
	},
}

var migrateGotoCmd = &cobra.Command{
	Use:   "goto <version>",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return e.db.MigrateToVersion(e.cfg.Server.MigrationsPath, uint(version))
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		version, dirty, err := e.db.MigrationVersion(e.cfg.Server.MigrationsPath)
		if err != nil {
			return err
		}
		if dirty {
			fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", version)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateGotoCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
