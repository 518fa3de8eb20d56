package cli

import (
	"fmt"
	"os"

	"devexchange-service/internal/config"
	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI. A .env file in the working directory is loaded first
// so it can feed both flag defaults and ${VAR} references in the config file.
func Execute() error {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "devexchange",
		Short:        "DevExchange quiz, statistics and showcase service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides server.port)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewTokenCmd(&configPath))
	return cmd
}

// loadConfig reads the config file, tolerating a missing default file so the
// service can start in memory mode.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && os.IsNotExist(err) && path == "config/config.yaml" {
		return config.Config{}, nil
	}
	return cfg, err
}
