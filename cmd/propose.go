package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/farewatch/farewatch-cli/internal/sched"
	"github.com/farewatch/farewatch-cli/internal/sweep"
)

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Print the next probe batch without running it",
	Long:  "Loads the archive, applies decay in memory, and prints the batch the scheduler would probe next. Nothing is persisted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		arch := sched.NewFileStore(cfg.Sched.ArchivePath).Load()
		arch.Decay(time.Now().Format("2006-01-02"))

		params := sched.BatchParams{
			Origins:         cfg.Search.Origins,
			Dests:           cfg.Search.Destinations,
			Dates:           sweep.BuildDatePool(cfg.Search.WindowStart, cfg.Search.WindowEnd, cfg.Search.TripLengths),
			TripLengths:     cfg.Search.TripLengths,
			Q:               cfg.Sched.SamplesPerSweep,
			RandomFloorFrac: cfg.Sched.RandomFloorFrac,
			BeamK:           cfg.Sched.BeamK,
		}
		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		batch := arch.ProposeBatch(params, rng)

		if len(batch) == 0 {
			fmt.Fprintln(os.Stderr, "Nothing to propose; check the search pools in the config.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ORIGIN\tDEST\tDEPART\tRETURN\tSEEN\tPOST. MEAN")
		for _, arm := range batch {
			if st, ok := arch.Stats[arm.Key()]; ok {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\tyes\t%.2f\n", arm.Origin, arm.Dest, arm.Depart, arm.Return, st.Mean)
			} else {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\tno\t-\n", arm.Origin, arm.Dest, arm.Depart, arm.Return)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(proposeCmd)
}
