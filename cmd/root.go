package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "station-search",
	Short: "Find NOAA weather stations near a point and report on their data",
	Long: "Searches NCEI Access Services for stations around a latitude/longitude, growing the search box " +
		"until the requested data types are covered, downloads daily summaries and builds coverage reports.",
	SilenceUsage: true,
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
