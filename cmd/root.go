package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "events",
	Short: "Community events service",
	Long:  `Backend service for the community events platform: event lifecycle, registrations, ratings and reminders`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
