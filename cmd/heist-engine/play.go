package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"heist-engine/internal/crew"
	"heist-engine/internal/events"
	"heist-engine/internal/safehouse"
)

func newDeckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deck [mission...]",
		Short: "Draw mission event decks",
		Long:  "deck draws and journals the event deck for each named mission, or for every mission in the scenario.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ids := args
			if len(ids) == 0 {
				for _, m := range a.campaign.Scenario().Missions {
					ids = append(ids, m.ID)
				}
			}
			decks := map[string]events.Deck{}
			var rows [][]string
			for _, id := range ids {
				deck, err := a.campaign.DrawDeck(id)
				if err != nil {
					return err
				}
				decks[id] = deck
				for i, c := range deck {
					rows = append(rows, []string{
						id,
						strconv.Itoa(i + 1),
						c.Label,
						fmt.Sprintf("%.0f%%", c.TriggerProgress*100),
						fmt.Sprintf("%.2f", c.SelectionWeight),
						string(c.AppliedDifficultyBand),
					})
				}
			}
			return printResult(cmd.OutOrStdout(), decks, []string{"Mission", "#", "Event", "At", "Weight", "Band"}, rows)
		},
	}
}

func newIncursionsCmd(opts *rootOptions) *cobra.Command {
	var (
		heat     string
		resolves []string
	)
	cmd := &cobra.Command{
		Use:   "incursions [mission]",
		Short: "Trigger safehouse incursions",
		Long:  "incursions generates safehouse alerts, activates their defense scenarios and optionally resolves them with alert=choice pairs.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if heat != "" {
				a.campaign.SetHeatTier(heat)
			}
			mission := ""
			if len(args) == 1 {
				mission = args[0]
			}
			res, err := a.campaign.TriggerIncursions(mission)
			if err != nil {
				return err
			}
			for _, r := range resolves {
				alertID, choiceID, ok := strings.Cut(r, "=")
				if !ok {
					return fmt.Errorf("resolve %q: want alert=choice", r)
				}
				if _, err := a.campaign.ResolveIncursion(alertID, choiceID); err != nil {
					return err
				}
			}
			alerts := a.campaign.Alerts()
			rows := make([][]string, 0, len(alerts))
			for _, al := range alerts {
				rows = append(rows, []string{al.ID, al.Label, string(al.Severity), string(al.Status), strconv.Itoa(al.CooldownDays)})
			}
			out := struct {
				Alerts []safehouse.Alert    `json:"alerts"`
				Events []events.Definition `json:"events"`
			}{alerts, res.Events}
			return printResult(cmd.OutOrStdout(), out, []string{"Alert", "Label", "Severity", "Status", "Cooldown"}, rows)
		},
	}
	cmd.Flags().StringVar(&heat, "heat", "", "Override the scenario heat tier (calm, alert, lockdown)")
	cmd.Flags().StringArrayVar(&resolves, "resolve", nil, "Resolve an alert after triggering (alert=choice, repeatable)")
	return cmd
}

func newBeatsCmd(opts *rootOptions) *cobra.Command {
	var resolves []string
	cmd := &cobra.Command{
		Use:   "beats <mission>",
		Short: "Play a mission's scripted crew chemistry beats",
		Long:  "beats records the scenario's chemistry beats for a mission and lists the relationship events they fire.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			fired := a.campaign.PlayBeats(args[0])
			for _, r := range resolves {
				eventID, choiceID, ok := strings.Cut(r, "=")
				if !ok {
					return fmt.Errorf("resolve %q: want event=choice", r)
				}
				if _, err := a.campaign.ResolveRelationshipEvent(eventID, choiceID); err != nil {
					return err
				}
			}
			rows := make([][]string, 0, len(fired))
			for _, ev := range fired {
				rows = append(rows, []string{ev.ID, ev.Label, string(ev.Band), strings.Join(ev.CrewIDs, ",")})
			}
			out := struct {
				Fired   []crew.EventView `json:"fired"`
				Pending []crew.EventView `json:"pending"`
			}{fired, a.campaign.PendingRelationshipEvents()}
			return printResult(cmd.OutOrStdout(), out, []string{"Event", "Label", "Band", "Crew"}, rows)
		},
	}
	cmd.Flags().StringArrayVar(&resolves, "resolve", nil, "Resolve a fired event (event=choice, repeatable)")
	return cmd
}

func newStorylinesCmd(opts *rootOptions) *cobra.Command {
	var (
		resolve string
		outcome string
	)
	cmd := &cobra.Command{
		Use:   "storylines",
		Short: "List or resolve crew loyalty storylines",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if resolve != "" {
				crewID, stepID, ok := strings.Cut(resolve, "/")
				if !ok {
					return fmt.Errorf("resolve %q: want crew/step", resolve)
				}
				res, err := a.campaign.ResolveStoryline(crewID, stepID, outcome)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), res, []string{"Crew", "Step", "Success", "Summary"},
					[][]string{{res.CrewID, res.StepID, strconv.FormatBool(res.Success), res.Summary}})
			}
			offers := a.campaign.Storylines()
			rows := make([][]string, 0, len(offers))
			for _, m := range offers {
				rows = append(rows, []string{m.CrewID, m.StepID, m.Name, fmt.Sprintf("%.0f", m.Payout)})
			}
			return printResult(cmd.OutOrStdout(), offers, []string{"Crew", "Step", "Mission", "Payout"}, rows)
		},
	}
	cmd.Flags().StringVar(&resolve, "resolve", "", "Resolve a storyline step (crew/step)")
	cmd.Flags().StringVar(&outcome, "outcome", crew.OutcomeSuccess, "Outcome for --resolve")
	return cmd
}
