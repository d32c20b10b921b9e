package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DoniLite/morsewire/config"
)

var configPath string

var RootCmd = &cobra.Command{
	Use:   "morsewire",
	Short: "Morse telegraph stations over a shared network wire",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the settings file (yaml or json)")
	RootCmd.AddCommand(relayCmd)
	RootCmd.AddCommand(stationCmd)
	RootCmd.AddCommand(playCmd)
}

// loadConfig reads the configured settings file, or returns an empty
// configuration when none was given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return &config.Config{}, nil
	}
	return config.Load(configPath)
}
