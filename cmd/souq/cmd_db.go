package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/database/seeders"
	"github.com/shashiranjanraj/souq/pkg/database"
	"github.com/shashiranjanraj/souq/pkg/migration"
)

// withDB loads config, opens the database for the duration of fn and
// closes it afterwards.
func withDB(fn func(db *gorm.DB) error) error {
	if err := config.Load(); err != nil {
		return err
	}
	db, err := database.Connect()
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck
	return fn(db)
}

// souq migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Running migrations…")
			n, err := migration.New(db, out).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d migration(s) applied\n", n)
			return nil
		})
	},
}

// souq migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Rolling back last batch…")
			n, err := migration.New(db, out).Rollback(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d migration(s) rolled back\n", n)
			return nil
		})
	},
}

// souq migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			statuses, err := migration.New(db, nil).Status(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
			for _, s := range statuses {
				ran, batch := "No", "-"
				if s.Ran {
					ran, batch = "Yes", fmt.Sprint(s.Batch)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, ran, batch)
			}
			return w.Flush()
		})
	},
}

// souq seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
			return seeders.RunAll(cmd.Context(), db, cmd.OutOrStdout())
		})
	},
}
