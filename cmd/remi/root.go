package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "remi",
	Short: "Remi - reminder and daily briefing service",
	Long: `Remi schedules natural-language reminders and daily agenda briefings,
dispatches them through a durable task queue and delivers them over
WhatsApp or Telegram.`,
	Version: Version,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}
