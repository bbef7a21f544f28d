package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Parthita/train-delay-backend/app"
	"github.com/Parthita/train-delay-backend/core/model"
)

var predictDate string

var predictCmd = &cobra.Command{
	Use:   "predict <train-number>",
	Short: "Predict delays from cached artifacts without ingesting",
	Args:  cobra.ExactArgs(1),
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictDate, "date", "", "service date (YYYY-MM-DD), defaults to today")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	date, err := flagDate(predictDate)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer closeService(svc)

	res, err := svc.Predictor.Predict(model.Train{Number: args[0]}, date)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		return fmt.Errorf("no cached data for train %s, run process first", args[0])
	}
	return printJSON(cmd, res)
}
