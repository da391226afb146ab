package commands

import (
	"fmt"

	"maisync/internal/components/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Runs exactly one sync cycle and prints what it did.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd.Context())
		defer a.close()

		if a.cfg.Otlp.Enabled() {
			shutdown, err := telemetry.SetupOtlp(cmd.Context(), "maisync", a.cfg.Otlp)
			if err != nil {
				return err
			}
			defer shutdown(cmd.Context())
		}

		engine, err := a.newEngine(cmd.Context(), nil)
		if err != nil {
			return err
		}
		result, cycleErr := engine.RunCycle(cmd.Context())

		t := newTable()
		t.AppendRows([]table.Row{
			{"Cycle", result.ID},
			{"Kind", orDash(string(result.Kind))},
			{"Maintenance", result.Maintenance},
			{"Fetches", result.Fetches},
			{"Scores written", result.ScoresWritten},
			{"Playlogs written", result.PlaylogsWritten},
			{"First plays", result.FirstPlays},
			{"Skipped rows", len(result.Skipped)},
			{"New records", result.NewRecords},
			{"States", fmt.Sprint(result.States)},
		})
		t.Render()
		return cycleErr
	},
}
