package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Parthita/train-delay-backend/app"
	"github.com/Parthita/train-delay-backend/config"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "train-delay-backend",
	Short: "Train arrival delay prediction service",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer closeService(svc)
	return svc.Run(ctx)
}

// loadConfig reads cfgPath. When the flag was left untouched and the default
// file does not exist, built-in defaults are used instead so the service can
// start without any configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}

// flagDate parses a --date flag value, defaulting to today.
func flagDate(s string) (time.Time, error) {
	if s == "" {
		return model.Day(time.Now()), nil
	}
	return model.ParseDay(s)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
