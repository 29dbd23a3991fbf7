package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/envscreen/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "envscreen",
	Short: "Environmental proximity screening",
	Long:  "Screens a point against regulatory feature services (wetlands, flood, critical habitat, karst, air quality, cadastral) and reports intersections, nearest-feature distances and bearings, and map buffers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
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
