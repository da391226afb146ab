// Package store persists mirrored records in SQL and serves them back to
// readers. All writes of a sync cycle go through a single Tx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"maisync/internal/components/assert"
	"maisync/internal/components/telemetry"
	"maisync/internal/db"
	"maisync/internal/records"
)

const (
	report_db_query = "db.query"
	report_begin_tx = "begin-tx"
)

// ErrStorage wraps every database failure.
var ErrStorage = fmt.Errorf("store: storage failure")

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

type Store struct {
	qry      *db.Queries
	makeTx   db.MakeTx
	location *time.Location
	tel      telemetry.API
}

// NewStore expects the schema to be applied already, times are returned in
// the given location.
func NewStore(database *sql.DB, location *time.Location, tel telemetry.API) Store {
	assert.NotNil(database, "database")
	assert.NotNil(tel, "telemetry")
	if location == nil {
		location = time.UTC
	}

	return Store{
		qry:      db.New(database),
		makeTx:   db.NewMakeTx(database),
		location: location,
		tel:      telemetry.NewScopedAPI("store", tel),
	}
}

// Begin opens the transaction of a sync cycle. Calling discard after commit
// is a no-op.
func (s Store) Begin(ctx context.Context) (tx *Tx, discard, commit func() error, err error) {
	qry, discardTx, commitTx, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_begin_tx, err)
		return nil, nil, nil, storageError("begin", err)
	}

	discard = func() error {
		err := discardTx()
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			return storageError("rollback", err)
		}
		return nil
	}
	commit = func() error {
		err := commitTx()
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "Commit")
			return storageError("commit", err)
		}
		return nil
	}
	return &Tx{qry: qry, location: s.location, tel: s.tel}, discard, commit, nil
}

// Player returns the stored player snapshot, nil if nothing was synced yet.
func (s Store) Player(ctx context.Context) (*records.PlayerSnapshot, error) {
	return snapshot(ctx, s.qry, s.location, s.tel)
}

// Score looks up the best score of a chart by its title, ok is false if the
// chart was never scraped. Rows scraped without a title are keyed by their
// fallback and only reachable through ScoreByKey.
func (s Store) Score(ctx context.Context, title string, chartType records.ChartType, difficulty records.Difficulty) (score records.ScoreRecord, ok bool, err error) {
	return s.ScoreByKey(ctx, records.SongKey(title, ""), chartType, difficulty)
}

// ScoreByKey looks up the best score of a chart by its song key.
func (s Store) ScoreByKey(ctx context.Context, songKey string, chartType records.ChartType, difficulty records.Difficulty) (score records.ScoreRecord, ok bool, err error) {
	param := db.GetScoreByKeyParams{
		SongKey:    songKey,
		ChartType:  chartType.String(),
		Difficulty: difficulty.String(),
	}
	row, err := s.qry.GetScoreByKey(ctx, param)
	if errors.Is(err, sql.ErrNoRows) {
		return records.ScoreRecord{}, false, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetScoreByKey", param)
		return records.ScoreRecord{}, false, storageError("get score", err)
	}
	return scoreFromRow(row, s.location), true, nil
}

// RecentPlays returns the n most recent plays, newest first.
func (s Store) RecentPlays(ctx context.Context, n int) ([]records.PlayLogRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.qry.ListRecentPlaylogs(ctx, int64(n))
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "ListRecentPlaylogs", n)
		return nil, storageError("list recent plays", err)
	}
	out := make([]records.PlayLogRecord, len(rows))
	for i, row := range rows {
		out[i] = playlogFromRow(row, s.location)
	}
	return out, nil
}

// PlaysSince returns every play at or after the given time, newest first.
// Plays without a timestamp are never included.
func (s Store) PlaysSince(ctx context.Context, since time.Time) ([]records.PlayLogRecord, error) {
	rows, err := s.qry.ListPlaylogsSince(ctx, sql.NullInt64{Int64: since.Unix(), Valid: true})
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "ListPlaylogsSince", since)
		return nil, storageError("list plays since", err)
	}
	out := make([]records.PlayLogRecord, len(rows))
	for i, row := range rows {
		out[i] = playlogFromRow(row, s.location)
	}
	return out, nil
}

// Counts returns the number of stored score and playlog rows.
func (s Store) Counts(ctx context.Context) (scores, playlogs int64, err error) {
	scores, err = s.qry.CountScores(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CountScores")
		return 0, 0, storageError("count scores", err)
	}
	playlogs, err = s.qry.CountPlaylogs(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CountPlaylogs")
		return 0, 0, storageError("count playlogs", err)
	}
	return scores, playlogs, nil
}

func snapshot(ctx context.Context, qry *db.Queries, location *time.Location, tel telemetry.API) (*records.PlayerSnapshot, error) {
	row, err := qry.GetPlayerSnapshot(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		tel.ReportBroken(report_db_query, err, "GetPlayerSnapshot")
		return nil, storageError("get player snapshot", err)
	}
	out := snapshotFromRow(row, location)
	return &out, nil
}
