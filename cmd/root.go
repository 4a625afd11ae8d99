package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "soha-priorities",
	Short: "Daily field-operations priority list",
	Long:  "Builds the well registry, scores deferment, flood, inspection, telemetry and work-order signals, and writes the ranked priority list.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
