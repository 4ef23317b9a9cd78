package main

import (
	"os"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	serverURL  string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "sentinelctl",
		Short:         "Operate a sentinel deployment",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	defaultURL := os.Getenv("SENTINEL_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config/config.toml"
	}
	root.PersistentFlags().StringVar(&opts.serverURL, "server", defaultURL, "sentinel HTTP API base URL")
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "config file used for direct queue access")

	root.AddCommand(
		newSubmitCmd(opts),
		newEnqueueCmd(opts),
		newEventCmd(opts),
		newDLQCmd(opts),
		newSmokeCmd(opts),
	)
	return root
}
