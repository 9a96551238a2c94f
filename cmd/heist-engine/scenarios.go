package main

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"heist-engine/internal/scenario"
)

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List built-in campaign scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			arcs := scenario.BuiltIn()
			names := make([]string, 0, len(arcs))
			for n := range arcs {
				names = append(names, n)
			}
			sort.Strings(names)
			type entry struct {
				Key         string `json:"key"`
				Name        string `json:"name"`
				Description string `json:"description"`
				Missions    int    `json:"missions"`
				Crew        int    `json:"crew"`
			}
			list := make([]entry, 0, len(names))
			rows := make([][]string, 0, len(names))
			for _, n := range names {
				sc := arcs[n]
				list = append(list, entry{n, sc.Name, sc.Description, len(sc.Missions), len(sc.Crew)})
				rows = append(rows, []string{n, sc.Name, strconv.Itoa(len(sc.Missions)), strconv.Itoa(len(sc.Crew)), sc.Description})
			}
			return printResult(cmd.OutOrStdout(), list, []string{"Key", "Name", "Missions", "Crew", "Description"}, rows)
		},
	}
}
