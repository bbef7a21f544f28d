package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Parthita/train-delay-backend/app"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/pipeline"
)

var batchDate string

var batchCmd = &cobra.Command{
	Use:   "batch <train-list-file>",
	Short: "Queue a file of trains and wait for the batch to finish",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchDate, "date", "", "service date (YYYY-MM-DD), defaults to today")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	trains, err := readTrainList(args[0])
	if err != nil {
		return err
	}
	if len(trains) == 0 {
		return fmt.Errorf("no trains in %s", args[0])
	}
	date, err := flagDate(batchDate)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer closeService(svc)

	id, err := svc.Queue.Enqueue(ctx, trains, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d trains queued\n", id, len(trains))
	if err := svc.Queue.Drain(ctx); err != nil {
		svc.Queue.Cancel()
		return fmt.Errorf("interrupted, partial results in %s: %w", cfg.Storage.ResultsFile, err)
	}

	results := svc.Queue.Results()
	var ok int
	for _, r := range results {
		if r.Status == pipeline.StatusSuccess {
			ok++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Train, r.Status)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d/%d succeeded, results written to %s\n", ok, len(results), cfg.Storage.ResultsFile)
	return nil
}

// readTrainList parses a train list file with one "number,name" record per
// line. The name is optional and lines starting with # are skipped.
func readTrainList(path string) ([]model.Train, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'
	var trains []model.Train
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		tr := model.Train{Number: strings.TrimSpace(rec[0])}
		if len(rec) > 1 {
			tr.Name = strings.TrimSpace(rec[1])
		}
		if tr.Number == "" {
			continue
		}
		trains = append(trains, tr)
	}
	return trains, nil
}
