package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/farewatch/farewatch-cli/internal/records"
	"github.com/farewatch/farewatch-cli/internal/sched"
	"github.com/farewatch/farewatch-cli/internal/sweep"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect and maintain the price archive",
}

// -- archive status --

var archiveStatusLimit int

var archiveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cheapest arms by posterior mean",
	RunE: func(cmd *cobra.Command, _ []string) error {
		arch := sched.NewFileStore(cfg.Sched.ArchivePath).Load()
		arch.Decay(time.Now().Format("2006-01-02"))

		fmt.Printf("Archive: %s\n", cfg.Sched.ArchivePath)
		fmt.Printf("Gamma: %.3f  Arms: %d  Bootstrap watermark: %s\n\n",
			arch.Gamma, len(arch.Stats), orDash(arch.LastBootstrapTS))

		if len(arch.Stats) == 0 {
			fmt.Fprintln(os.Stderr, "Archive is empty; run a sweep or bootstrap from the record log.")
			return nil
		}

		rows := cheapestArms(arch, archiveStatusLimit)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ORIGIN\tDEST\tDEPART\tRETURN\tMEAN\tVARIANCE\tWEIGHT\tUPDATED")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%s\n",
				r.arm.Origin, r.arm.Dest, r.arm.Depart, r.arm.Return,
				r.st.Mean, r.st.Variance, r.st.Weight, r.st.LastUpdateDay)
		}
		return w.Flush()
	},
}

// archiveRow pairs a parsed arm with its archive stats for display.
type archiveRow struct {
	arm sched.Arm
	st  *sched.ArmStats
}

// cheapestArms lists archive arms ascending by posterior mean, dropping
// unparseable keys. A positive limit caps the result.
func cheapestArms(arch *sched.Archive, limit int) []archiveRow {
	var rows []archiveRow
	for key, st := range arch.Stats {
		arm, err := sched.ParseKey(key)
		if err != nil {
			continue
		}
		rows = append(rows, archiveRow{arm, st})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].st.Mean < rows[j].st.Mean })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// -- archive bootstrap --

var archiveBootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Replay the fare record log into the archive",
	Long:  "Feeds every record newer than the bootstrap watermark through the archive in chronological order. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log, err := records.NewLog(cfg.Records.Path)
		if err != nil {
			return eris.Wrap(err, "open records log")
		}
		history, err := log.All()
		if err != nil {
			return eris.Wrap(err, "read records log")
		}

		store := sched.NewFileStore(cfg.Sched.ArchivePath)
		arch := store.Load()
		n := arch.Bootstrap(sweep.ToHistorical(history))
		store.Save(arch)

		zap.L().Info("bootstrap complete",
			zap.Int("ingested", n),
			zap.Int("arms", len(arch.Stats)),
			zap.String("watermark", arch.LastBootstrapTS),
		)
		fmt.Printf("Ingested %d records; archive now tracks %d arms.\n", n, len(arch.Stats))
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	archiveStatusCmd.Flags().IntVar(&archiveStatusLimit, "limit", 20, "max arms to list (0 = all)")
	archiveCmd.AddCommand(archiveStatusCmd)
	archiveCmd.AddCommand(archiveBootstrapCmd)
	rootCmd.AddCommand(archiveCmd)
}
