package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarasa-labs/sarasa-checker/internal/config"
)

var configInitPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := config.Default()
		if err != nil {
			return err
		}

		if err := config.WriteFile(defaults, configInitPath); err != nil {
			return err
		}

		zap.L().Info("config written", zap.String("path", configInitPath))
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", "config.yaml", "where to write the config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
