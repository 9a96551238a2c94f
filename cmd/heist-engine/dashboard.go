package main

import (
	"github.com/spf13/cobra"

	"heist-engine/internal/dashboard"
)

func newDashboardCmd() *cobra.Command {
	var (
		out string
		top int
	)
	p := dashboard.DefaultParams()
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Render Grafana dashboards for the GreptimeDB journal",
		Long:  "dashboard renders the journal dashboards into a directory. GREPTIMEDB_DATASOURCE_UID must be set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p.TopEvents = top
			return dashboard.Render(out, p)
		},
	}
	cmd.Flags().StringVar(&out, "out", "build", "Output directory")
	cmd.Flags().StringVar(&p.Title, "title", p.Title, "Dashboard title")
	cmd.Flags().IntVar(&top, "top", p.TopEvents, "Rows in the most drawn events panel")
	return cmd
}
