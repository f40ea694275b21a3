// cmd/assistant/root.go
package main

import (
	"github.com/spf13/cobra"

	"shop-assistant/internal/common/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Natural-language shop assistant API",
	Long: `Shop assistant translates natural-language prompts into catalog and
user-store queries, formats the results as conversational replies and runs
vendor coupon campaigns.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (defaults to ./configs/config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
