package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evfleet/chargesim/app"
	"github.com/evfleet/chargesim/config"
	"github.com/evfleet/chargesim/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "chargesim",
	Short:        "EV charging infrastructure stress simulator",
	Long:         "Runs a discrete-time simulation of an EV fleet against regional charging infrastructure and reports per-region KPIs.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to the configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("configuration %s: %w", cfgPath, err)
	}
	logger.Configure(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.New("main").Errorf("service close: %v", cerr)
		}
	}()
	return svc.Run(ctx)
}
