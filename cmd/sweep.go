package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/farewatch/farewatch-cli/internal/notify"
	"github.com/farewatch/farewatch-cli/internal/records"
	"github.com/farewatch/farewatch-cli/internal/sched"
	"github.com/farewatch/farewatch-cli/internal/sweep"
	"github.com/farewatch/farewatch-cli/pkg/kayak"
)

var sweepOnce bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run fare probe sweeps",
	Long:  "Continuously proposes probe batches from the price archive, runs them against the fare source, and ingests the results. Pauses between sweeps.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store := sched.NewFileStore(cfg.Sched.ArchivePath)
		log, err := records.NewLog(cfg.Records.Path)
		if err != nil {
			return eris.Wrap(err, "open records log")
		}

		exec := kayak.New(kayak.Options{
			Headless: cfg.Probe.Headless,
			Settle:   cfg.Probe.Settle(),
		})
		defer exec.Close()

		runner := sweep.New(cfg, store, log, exec, notify.LogNotifier{})

		if sweepOnce {
			stats, err := runner.RunOnce(ctx)
			if err != nil {
				return eris.Wrap(err, "sweep")
			}
			zap.L().Info("sweep complete",
				zap.Int("proposed", stats.Proposed),
				zap.Int("probed", stats.Probed),
				zap.Int("fares", stats.Fares),
				zap.Int("no_fare", stats.NoFare),
			)
			return nil
		}

		return runner.Run(ctx)
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepOnce, "once", false, "run a single sweep and exit")
	rootCmd.AddCommand(sweepCmd)
}
