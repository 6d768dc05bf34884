package main

import (
	"github.com/aretw0/leadflow/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leadflow",
	Short: "Lead-capture wizard backend for the quote dialog and contact page",
	Long: `leadflow hosts the multi-step enquiry wizard server-side. Browsers, terminals and
AI agents drive a wizard session step by step; the last step submits the lead to the
lead-management endpoint.`,
	SilenceUsage: true,
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default ./"+config.DefaultFile+" when present)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
