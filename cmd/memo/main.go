package main

import (
	"fmt"
	"os"

	"github.com/oriys/memo/internal/config"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	outputFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "memo",
		Short: "Memo - in-process TTL cache and lookup daemon",
		Long:  "A process-local key-value cache with per-entry TTL, served in front of Redis, Postgres or S3",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, wide, json, yaml")

	rootCmd.AddCommand(
		serveCmd(),
		demoCmd(),
		statsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	config.LoadFromEnv(cfg)
	return cfg, nil
}
