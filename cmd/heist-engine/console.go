package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"heist-engine/internal/console"
	"heist-engine/internal/logging"
)

func newConsoleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Browse decks and incursions in an interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("console needs an interactive terminal")
			}
			// Log lines would tear the alternate screen.
			a, err := opts.open(cmd, logging.Discard())
			if err != nil {
				return err
			}
			defer a.Close()

			ui := console.New(a.campaign, a.campaign.Scenario().Missions)
			a.writer.Add(ui)
			return ui.Run()
		},
	}
}
