package store

import (
	"database/sql"
	"time"

	"maisync/internal/db"
	"maisync/internal/records"
)

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullInt(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func nullTime(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: value.Unix(), Valid: true}
}

func nullEnum[T ~string](value *T) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*value), Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}

func intPtr(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	return &value.Int64
}

func timePtr(value sql.NullInt64, location *time.Location) *time.Time {
	if !value.Valid {
		return nil
	}
	t := time.Unix(value.Int64, 0).In(location)
	return &t
}

// enumPtr reads back a stored display string, values that no longer parse are
// dropped.
func enumPtr[T any](value sql.NullString, parse func(string) (T, error)) *T {
	if !value.Valid {
		return nil
	}
	parsed, err := parse(value.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func scoreParams(score records.ScoreRecord) db.UpsertScoreParams {
	return db.UpsertScoreParams{
		SongKey:           score.SongKey,
		Title:             score.Title,
		ChartType:         score.ChartType.String(),
		Difficulty:        score.Difficulty.String(),
		Level:             nullString(score.Level),
		AchievementX10000: nullInt(score.Achievement),
		Rank:              nullEnum(score.Rank),
		Fc:                nullEnum(score.FC),
		Sync:              nullEnum(score.Sync),
		DxScore:           nullInt(score.DxScore),
		DxScoreMax:        nullInt(score.DxScoreMax),
		SourceIdx:         nullString(score.SourceIdx),
		ScrapedAt:         score.ScrapedAt.Unix(),
	}
}

func playlogParams(play records.PlayLogRecord) db.InsertPlaylogParams {
	var difficulty sql.NullString
	if play.Difficulty != nil {
		difficulty = sql.NullString{String: play.Difficulty.String(), Valid: true}
	}
	return db.InsertPlaylogParams{
		PlaylogIdx:           play.PlaylogIdx,
		PlayedAt:             nullTime(play.PlayedAt),
		PlayedAtText:         nullString(play.PlayedAtText),
		Track:                nullInt(play.Track),
		CreditPlayCount:      nullInt(play.CreditPlayCount),
		SongKey:              play.SongKey,
		Title:                play.Title,
		ChartType:            play.ChartType.String(),
		Difficulty:           difficulty,
		Level:                nullString(play.Level),
		AchievementX10000:    nullInt(play.Achievement),
		AchievementNewRecord: play.AchievementNewRecord,
		FirstPlay:            play.FirstPlay,
		Rank:                 nullEnum(play.Rank),
		Fc:                   nullEnum(play.FC),
		Sync:                 nullEnum(play.Sync),
		DxScore:              nullInt(play.DxScore),
		DxScoreMax:           nullInt(play.DxScoreMax),
		ScrapedAt:            play.ScrapedAt.Unix(),
	}
}

func scoreFromRow(row db.Score, location *time.Location) records.ScoreRecord {
	chartType, _ := records.ParseChartType(row.ChartType)
	difficulty, _ := records.ParseDifficulty(row.Difficulty)
	return records.ScoreRecord{
		SongKey:     row.SongKey,
		Title:       row.Title,
		ChartType:   chartType,
		Difficulty:  difficulty,
		Level:       stringPtr(row.Level),
		Achievement: intPtr(row.AchievementX10000),
		Rank:        enumPtr(row.Rank, records.ParseRank),
		FC:          enumPtr(row.Fc, records.ParseFc),
		Sync:        enumPtr(row.Sync, records.ParseSync),
		DxScore:     intPtr(row.DxScore),
		DxScoreMax:  intPtr(row.DxScoreMax),
		SourceIdx:   stringPtr(row.SourceIdx),
		ScrapedAt:   time.Unix(row.ScrapedAt, 0).In(location),
	}
}

func playlogFromRow(row db.Playlog, location *time.Location) records.PlayLogRecord {
	chartType, _ := records.ParseChartType(row.ChartType)
	return records.PlayLogRecord{
		PlaylogIdx:           row.PlaylogIdx,
		PlayedAt:             timePtr(row.PlayedAt, location),
		PlayedAtText:         stringPtr(row.PlayedAtText),
		Track:                intPtr(row.Track),
		SongKey:              row.SongKey,
		Title:                row.Title,
		ChartType:            chartType,
		Difficulty:           enumPtr(row.Difficulty, records.ParseDifficulty),
		Level:                stringPtr(row.Level),
		Achievement:          intPtr(row.AchievementX10000),
		AchievementNewRecord: row.AchievementNewRecord,
		Rank:                 enumPtr(row.Rank, records.ParseRank),
		FC:                   enumPtr(row.Fc, records.ParseFc),
		Sync:                 enumPtr(row.Sync, records.ParseSync),
		DxScore:              intPtr(row.DxScore),
		DxScoreMax:           intPtr(row.DxScoreMax),
		CreditPlayCount:      intPtr(row.CreditPlayCount),
		FirstPlay:            row.FirstPlay,
		ScrapedAt:            time.Unix(row.ScrapedAt, 0).In(location),
	}
}

func snapshotFromRow(row db.PlayerSnapshot, location *time.Location) records.PlayerSnapshot {
	return records.PlayerSnapshot{
		UserName:                row.UserName,
		Rating:                  row.Rating,
		CurrentVersionPlayCount: row.CurrentVersionPlayCount,
		TotalPlayCount:          row.TotalPlayCount,
		LastSyncKind:            records.SyncKind(row.LastSyncKind),
		UpdatedAt:               time.Unix(row.UpdatedAt, 0).In(location),
	}
}

func chartKey(songKey, chartType, difficulty string) (records.ChartKey, bool) {
	parsedChart, err := records.ParseChartType(chartType)
	if err != nil {
		return records.ChartKey{}, false
	}
	parsedDifficulty, err := records.ParseDifficulty(difficulty)
	if err != nil {
		return records.ChartKey{}, false
	}
	return records.ChartKey{
		SongKey:    songKey,
		ChartType:  parsedChart,
		Difficulty: parsedDifficulty,
	}, true
}
