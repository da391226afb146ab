package commands

import (
	"fmt"
	"strings"
	"time"

	"maisync/internal/records"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	recentCount     int
	scoreChart      string
	scoreDifficulty string
	scoreByKey      bool
)

func init() {
	recentCmd.Flags().IntVarP(&recentCount, "count", "n", 10, "The number of plays to show.")
	scoreCmd.Flags().StringVar(&scoreChart, "chart", "DX", "The chart type, STD or DX.")
	scoreCmd.Flags().StringVar(&scoreDifficulty, "diff", "MASTER", "The difficulty, BASIC through Re:MASTER.")
	scoreCmd.Flags().BoolVar(&scoreByKey, "key", false, "Look the argument up as a song key, for charts scraped without a title.")

	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(scoreCmd)
}

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Prints the stored player summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd.Context())
		defer a.close()

		st, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		player, err := st.Player(cmd.Context())
		if err != nil {
			return err
		}
		if player == nil {
			fmt.Println("Nothing was synced yet, run `maisync sync` first.")
			return nil
		}
		scores, playlogs, err := st.Counts(cmd.Context())
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendRows([]table.Row{
			{"Name", player.UserName},
			{"Rating", player.Rating},
			{"Plays (current version)", player.CurrentVersionPlayCount},
			{"Plays (total)", player.TotalPlayCount},
			{"Last sync", fmt.Sprintf("%s at %s", player.LastSyncKind, player.UpdatedAt.Format(time.DateTime))},
			{"Stored scores", scores},
			{"Stored playlogs", playlogs},
		})
		t.Render()
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent [-n N]",
	Short: "Prints the most recent stored plays.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd.Context())
		defer a.close()

		st, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		plays, err := st.RecentPlays(cmd.Context(), recentCount)
		if err != nil {
			return err
		}
		renderPlays(plays)
		return nil
	},
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Prints the plays of the current day in site time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd.Context())
		defer a.close()

		st, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		plays, err := st.PlaysSince(cmd.Context(), startOfDay(a.time.Now()))
		if err != nil {
			return err
		}
		renderPlays(plays)
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <title> [--chart DX] [--diff MASTER] [--key]",
	Short: "Prints the best score of a chart, or similar titles if it is unknown.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chartType, err := records.ParseChartType(scoreChart)
		if err != nil {
			return err
		}
		difficulty, err := records.ParseDifficulty(scoreDifficulty)
		if err != nil {
			return err
		}
		title := strings.Join(args, " ")

		a := getApp(cmd.Context())
		defer a.close()

		st, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		var score records.ScoreRecord
		var ok bool
		if scoreByKey {
			score, ok, err = st.ScoreByKey(cmd.Context(), title, chartType, difficulty)
		} else {
			score, ok, err = st.Score(cmd.Context(), title, chartType, difficulty)
		}
		if err != nil {
			return err
		}
		if ok {
			t := newTable()
			t.AppendRows([]table.Row{
				{"Title", orDash(score.Title)},
				{"Key", score.SongKey},
				{"Chart", fmt.Sprintf("%s %s %s", score.ChartType, score.Difficulty, orDash(deref(score.Level)))},
				{"Achievement", formatAchievement(score.Achievement)},
				{"Rank", formatEnum(score.Rank)},
				{"FC", formatEnum(score.FC)},
				{"Sync", formatEnum(score.Sync)},
				{"DX score", formatDxScore(score.DxScore, score.DxScoreMax)},
				{"Scraped", score.ScrapedAt.Format(time.DateTime)},
			})
			t.Render()
			return nil
		}

		if scoreByKey {
			return fmt.Errorf("no score for key %s (%s %s)", title, chartType, difficulty)
		}
		suggestions, err := st.SuggestTitles(cmd.Context(), title, 5)
		if err != nil {
			return err
		}
		if len(suggestions) == 0 {
			return fmt.Errorf("no score for '%s' (%s %s)", title, chartType, difficulty)
		}
		fmt.Printf("No score for '%s' (%s %s), did you mean:\n", title, chartType, difficulty)
		t := newTable()
		t.AppendHeader(table.Row{"Title", "Similarity"})
		for _, s := range suggestions {
			t.AppendRow(table.Row{s.Title, fmt.Sprintf("%.2f", s.Similarity)})
		}
		t.Render()
		return nil
	},
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
