package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Parthita/train-delay-backend/app"
	"github.com/Parthita/train-delay-backend/infra/kpi"
	"github.com/Parthita/train-delay-backend/infra/logger"
	"github.com/Parthita/train-delay-backend/jobs/backfill"
)

var backfillOut string

var backfillCmd = &cobra.Command{
	Use:   "backfill-kpis",
	Short: "Rebuild the punctuality KPI store from the run log",
	RunE:  runBackfill,
}

func init() {
	backfillCmd.Flags().StringVar(&backfillOut, "out", "", "target KPI database, defaults to storage.kpi_file")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := backfillOut
	if out == "" {
		out = cfg.Storage.KPIFile
	}
	if out == "" {
		return fmt.Errorf("no KPI database configured, set storage.kpi_file or --out")
	}
	if _, err := os.Stat(out); err == nil {
		return fmt.Errorf("%s already exists, backfill targets a fresh database", out)
	}

	runs, err := app.NewRunLogStore(cfg.RunLog)
	if err != nil {
		return fmt.Errorf("run log store: %w", err)
	}
	defer closeStore("run log", runs)
	kpis, err := kpi.NewSQLiteStore(out)
	if err != nil {
		return fmt.Errorf("kpi store: %w", err)
	}
	defer closeStore("kpi", kpis)

	n, err := backfill.KPIs(ctx, runs, kpis)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "backfilled %d runs into %s\n", n, out)
	return nil
}

func closeStore(name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logger.New("backfill").Errorf("%s store close: %v", name, err)
	}
}
