package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/jobs"
	"github.com/shashiranjanraj/souq/pkg/schedule"
)

// souq schedule:list
var scheduleListCmd = &cobra.Command{
	Use:   "schedule:list",
	Short: "List the maintenance tasks serve runs in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := schedule.New()
		jobs.Register(s, nil)
		for _, e := range s.Entries() {
			fmt.Fprintf(cmd.OutOrStdout(), "  • %s  [every %s]\n", e.Name, e.Interval)
		}
		return nil
	},
}

// souq schedule:run runs every task once, for deployments that drive
// maintenance from an external cron instead of the serve process.
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run every maintenance task once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			s := schedule.New()
			jobs.Register(s, db)
			if err := s.RunAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Scheduled tasks completed.")
			return nil
		})
	},
}
