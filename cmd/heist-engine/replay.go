package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"heist-engine/internal/journal"
)

func newReplayCmd(opts *rootOptions) *cobra.Command {
	var (
		input string
		speed float64
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a resolution log file",
		Long:  "replay feeds resolution rows from a JSONL log back into the configured journal sinks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("input file required")
			}
			e, log, err := opts.loadEnv(cmd)
			if err != nil {
				return err
			}
			w, err := newWriters(cmd.Context(), e, opts.printOnly, cmd.OutOrStdout(), cmd.ErrOrStderr(), log)
			if err != nil {
				return err
			}
			defer func() {
				if err := w.Close(); err != nil {
					log.Warn("close journal sinks", "err", err)
				}
			}()
			n, err := journal.ReplayLogFile(input, w, speed)
			log.Info("replay finished", "rows", n, "input", input)
			return err
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Path to resolution log file")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "Playback speed multiplier (0 for no delay)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
