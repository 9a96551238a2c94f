package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"heist-engine/internal/campaign"
	"heist-engine/internal/config"
	"heist-engine/internal/journal"
	"heist-engine/internal/logging"
	"heist-engine/internal/scenario"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	schemaPath string
	scenario   string
	printOnly  bool
	restore    string
}

// app is a ready campaign with its journal sinks.
type app struct {
	env      config.Env
	cfg      *config.EngineConfig
	log      *slog.Logger
	writer   *journal.MultiWriter
	campaign *campaign.Campaign
}

func (a *app) Close() {
	if err := a.writer.Close(); err != nil {
		a.log.Warn("close journal sinks", "err", err)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "heist-engine",
		Short:         "Heist campaign engine",
		Long:          "heist-engine draws mission event decks, runs safehouse incursions and tracks crew relationships for a campaign.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/engine.yaml", "Path to engine tuning YAML (empty for defaults)")
	root.PersistentFlags().StringVar(&opts.schemaPath, "schema", "schemas/engine.cue", "Path to CUE schema file")
	root.PersistentFlags().StringVar(&opts.scenario, "scenario", "", "Built-in scenario name or seed file (overrides the config)")
	root.PersistentFlags().BoolVar(&opts.printOnly, "print-only", false, "Print journal rows to STDOUT instead of the configured sinks")
	root.PersistentFlags().StringVar(&opts.restore, "restore", "", "Restore game state from a snapshot file")

	root.AddCommand(
		newDeckCmd(opts),
		newIncursionsCmd(opts),
		newBeatsCmd(opts),
		newStorylinesCmd(opts),
		newServeCmd(opts),
		newConsoleCmd(opts),
		newScenariosCmd(),
		newReplayCmd(opts),
		newDashboardCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) loadEnv(cmd *cobra.Command) (config.Env, *slog.Logger, error) {
	e, err := config.LoadEnv()
	if err != nil {
		return config.Env{}, nil, err
	}
	log, err := logging.New(cmd.ErrOrStderr(), e.LogLevel, e.LogFormat)
	if err != nil {
		return config.Env{}, nil, err
	}
	return e, log, nil
}

func (o *rootOptions) loadConfig() (*config.EngineConfig, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(o.configPath, o.schemaPath)
}

// open builds the campaign for a subcommand. A nil log is replaced by one
// built from the environment.
func (o *rootOptions) open(cmd *cobra.Command, log *slog.Logger) (*app, error) {
	e, envLog, err := o.loadEnv(cmd)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = envLog
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	name := cfg.Scenario
	if o.scenario != "" {
		name = o.scenario
	}
	seed, err := scenario.Resolve(name)
	if err != nil {
		return nil, err
	}
	w, err := newWriters(cmd.Context(), e, o.printOnly, cmd.OutOrStdout(), cmd.ErrOrStderr(), log)
	if err != nil {
		return nil, err
	}
	c, err := campaign.New(e.CampaignID, seed, cfg, w, log)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	a := &app{env: e, cfg: cfg, log: log, writer: w, campaign: c}
	if o.restore != "" {
		data, err := os.ReadFile(o.restore)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		if err := c.Restore(data); err != nil {
			a.Close()
			return nil, err
		}
	}
	log.Debug("campaign ready", "campaign_id", e.CampaignID, "scenario", seed.Name)
	return a, nil
}
