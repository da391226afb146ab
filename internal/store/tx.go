package store

import (
	"context"
	"time"

	"maisync/internal/components/telemetry"
	"maisync/internal/db"
	"maisync/internal/records"
)

// Tx is the write side of the store, it lives for one sync cycle.
type Tx struct {
	qry      *db.Queries
	location *time.Location
	tel      telemetry.API
}

// UpsertScores inserts new charts and overwrites the achievement state of
// known ones.
func (t *Tx) UpsertScores(ctx context.Context, batch []records.ScoreRecord) error {
	for _, score := range batch {
		param := scoreParams(score)
		err := t.qry.UpsertScore(ctx, param)
		if err != nil {
			t.tel.ReportBroken(report_db_query, err, "UpsertScore", param.SongKey, param.ChartType, param.Difficulty)
			return storageError("upsert score", err)
		}
	}
	return nil
}

// UpsertPlaylogs inserts plays that are not stored yet, known playlog ids are
// left untouched. It returns how many rows were inserted.
func (t *Tx) UpsertPlaylogs(ctx context.Context, batch []records.PlayLogRecord) (int, error) {
	inserted := 0
	for _, play := range batch {
		param := playlogParams(play)
		affected, err := t.qry.InsertPlaylog(ctx, param)
		if err != nil {
			t.tel.ReportBroken(report_db_query, err, "InsertPlaylog", param.PlaylogIdx)
			return inserted, storageError("insert playlog", err)
		}
		inserted += int(affected)
	}
	return inserted, nil
}

// PersistSnapshot overwrites the single player snapshot row.
func (t *Tx) PersistSnapshot(ctx context.Context, snapshot records.PlayerSnapshot) error {
	param := db.PutPlayerSnapshotParams{
		UserName:                snapshot.UserName,
		Rating:                  snapshot.Rating,
		CurrentVersionPlayCount: snapshot.CurrentVersionPlayCount,
		TotalPlayCount:          snapshot.TotalPlayCount,
		LastSyncKind:            string(snapshot.LastSyncKind),
		UpdatedAt:               snapshot.UpdatedAt.Unix(),
	}
	err := t.qry.PutPlayerSnapshot(ctx, param)
	if err != nil {
		t.tel.ReportBroken(report_db_query, err, "PutPlayerSnapshot")
		return storageError("put player snapshot", err)
	}
	return nil
}

// Snapshot returns the snapshot as of the start of the cycle, nil if there is
// none.
func (t *Tx) Snapshot(ctx context.Context) (*records.PlayerSnapshot, error) {
	return snapshot(ctx, t.qry, t.location, t.tel)
}

// ScoreKeys returns every chart that has an achievement in the score table.
func (t *Tx) ScoreKeys(ctx context.Context) (map[records.ChartKey]struct{}, error) {
	rows, err := t.qry.ListScoreKeys(ctx)
	if err != nil {
		t.tel.ReportBroken(report_db_query, err, "ListScoreKeys")
		return nil, storageError("list score keys", err)
	}
	out := make(map[records.ChartKey]struct{}, len(rows))
	for _, row := range rows {
		key, ok := chartKey(row.SongKey, row.ChartType, row.Difficulty)
		if !ok {
			continue
		}
		out[key] = struct{}{}
	}
	return out, nil
}

// PlayedKeys returns every chart that has at least one stored play.
func (t *Tx) PlayedKeys(ctx context.Context) (map[records.ChartKey]struct{}, error) {
	rows, err := t.qry.ListPlayedKeys(ctx)
	if err != nil {
		t.tel.ReportBroken(report_db_query, err, "ListPlayedKeys")
		return nil, storageError("list played keys", err)
	}
	out := make(map[records.ChartKey]struct{}, len(rows))
	for _, row := range rows {
		if !row.Difficulty.Valid {
			continue
		}
		key, ok := chartKey(row.SongKey, row.ChartType, row.Difficulty.String)
		if !ok {
			continue
		}
		out[key] = struct{}{}
	}
	return out, nil
}
