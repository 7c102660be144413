package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mverhage/bothive/pkg/config"
	"github.com/mverhage/bothive/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bothive",
	Short: "Bothive - multi-tenant bot process hosting",
	Long: `Bothive hosts user-uploaded bot scripts (.py, .js) as supervised
OS processes behind a REST API.

It provides:
- Bot upload with per-user quotas
- Start/stop with graceful-then-forced termination
- Captured stdout/stderr logs with bounded retrieval
- Live CPU/memory stats per bot`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Setup(cfg)

		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/bothive/config.yml)")
}
