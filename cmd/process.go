package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Parthita/train-delay-backend/app"
	"github.com/Parthita/train-delay-backend/core/model"
)

var (
	processName string
	processDate string
)

var processCmd = &cobra.Command{
	Use:   "process <train-number>",
	Short: "Run one train through ingest, training and prediction",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processName, "name", "", "train name")
	processCmd.Flags().StringVar(&processDate, "date", "", "service date (YYYY-MM-DD), defaults to today")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	date, err := flagDate(processDate)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer closeService(svc)

	res := svc.Orch.Process(ctx, model.Train{Number: args[0], Name: processName}, date)
	return printJSON(cmd, res)
}
