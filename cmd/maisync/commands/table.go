package commands

import (
	"fmt"
	"os"
	"time"

	"maisync/internal/records"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func formatAchievement(achievement *int64) string {
	if achievement == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f%%", records.AchievementPercent(*achievement))
}

func formatEnum[T ~string](value *T) string {
	if value == nil {
		return "-"
	}
	return orDash(string(*value))
}

func formatInt(value *int64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprint(*value)
}

func formatDxScore(score, max *int64) string {
	if score == nil {
		return "-"
	}
	if max == nil {
		return fmt.Sprint(*score)
	}
	return fmt.Sprintf("%d / %d", *score, *max)
}

func formatPlayedAt(play records.PlayLogRecord) string {
	if play.PlayedAt != nil {
		return play.PlayedAt.Format("2006-01-02 15:04")
	}
	if play.PlayedAtText != nil {
		return *play.PlayedAtText
	}
	return "-"
}

func renderPlays(plays []records.PlayLogRecord) {
	t := newTable()
	t.AppendHeader(table.Row{"Played", "Track", "Title", "Chart", "Difficulty", "Achievement", "Rank", "FC", "Sync", "DX score", "Credit", ""})
	for _, play := range plays {
		difficulty := "-"
		if play.Difficulty != nil {
			difficulty = play.Difficulty.String()
		}
		marks := ""
		if play.AchievementNewRecord {
			marks += "NEW "
		}
		if play.FirstPlay {
			marks += "FIRST"
		}
		t.AppendRow(table.Row{
			formatPlayedAt(play),
			formatInt(play.Track),
			play.Title,
			play.ChartType.String(),
			difficulty,
			formatAchievement(play.Achievement),
			formatEnum(play.Rank),
			formatEnum(play.FC),
			formatEnum(play.Sync),
			formatDxScore(play.DxScore, play.DxScoreMax),
			formatInt(play.CreditPlayCount),
			marks,
		})
	}
	t.Render()
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
