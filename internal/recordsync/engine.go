// Package recordsync runs sync cycles: it decides from the player summary how
// much of the site to crawl and writes what it parsed in one transaction.
package recordsync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"maisync/internal/components/assert"
	"maisync/internal/components/chrono"
	"maisync/internal/components/telemetry"
	"maisync/internal/records"
	"maisync/internal/scrapers/dxnet"
	"maisync/internal/scrapers/dxnet/parse"
	"maisync/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_cycle          = "engine.cycle"
	report_cycle_skipped  = "engine.cycle-skipped"
	report_parse_skip     = "engine.parse-skip"
	report_notify         = "engine.notify"
	report_inserted_plays = "engine.inserted-plays"
	report_first_plays    = "engine.first-plays"
)

var tracer = otel.Tracer("maisync/recordsync")

// ErrCycleInProgress is returned when a cycle is started while another one
// has not finished.
var ErrCycleInProgress = fmt.Errorf("recordsync: a sync cycle is already in progress")

// ErrSnapshotChanged is returned when the stored snapshot was rewritten by
// someone else while the cycle was fetching.
var ErrSnapshotChanged = fmt.Errorf("recordsync: player snapshot changed during the cycle")

// Site is the authenticated view of the remote site, dxnet.Client implements
// it.
type Site interface {
	EnsureAuthenticated(ctx context.Context) error
	Fetch(ctx context.Context, endpoint string) ([]byte, error)
}

// Notifier is told about every cycle that found new records.
type Notifier interface {
	NotifyNewRecords(ctx context.Context, result Result) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, result Result) error

func (f NotifierFunc) NotifyNewRecords(ctx context.Context, result Result) error {
	return f(ctx, result)
}

// Result describes a finished cycle, including failed ones.
type Result struct {
	ID        string
	StartedAt time.Time
	Kind      records.SyncKind
	// States lists every state the cycle went through in order.
	States []State
	// Maintenance is true if the cycle was skipped for the maintenance window.
	Maintenance bool
	// NewRecords is true if downstream consumers should be notified.
	NewRecords      bool
	Fetches         int
	ScoresWritten   int
	PlaylogsWritten int
	FirstPlays      int
	Skipped         []*parse.ParseError
	Player          *records.PlayerSnapshot
}

func (r *Result) visit(state State) {
	r.States = append(r.States, state)
}

type Options struct {
	// Maintenance defaults to 04:00-07:00 in the location of the TimeAPI.
	Maintenance *MaintenanceWindow
	Notifier    Notifier
}

type Engine struct {
	site        Site
	store       store.Store
	time        chrono.TimeAPI
	tel         telemetry.API
	maintenance MaintenanceWindow
	notifier    Notifier

	running atomic.Bool
}

func NewEngine(site Site, st store.Store, time chrono.TimeAPI, tel telemetry.API, opts Options) *Engine {
	assert.NotNil(site, "site")
	assert.NotNil(time, "time")
	assert.NotNil(tel, "telemetry")

	maintenance := DefaultMaintenanceWindow(time.Location())
	if opts.Maintenance != nil {
		maintenance = *opts.Maintenance
	}

	return &Engine{
		site:        site,
		store:       st,
		time:        time,
		tel:         telemetry.NewScopedAPI("recordsync", tel),
		maintenance: maintenance,
		notifier:    opts.Notifier,
	}
}

// Running tells if a cycle is in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// RunCycle runs a single sync cycle. It never runs concurrently with itself,
// an overlapping call returns ErrCycleInProgress without doing anything. On
// error the returned Result still describes how far the cycle got.
//
// A started cycle always runs to completion, cancelling ctx does not abort
// it. Its values are still passed on.
func (e *Engine) RunCycle(ctx context.Context) (Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		e.tel.ReportWarning(report_cycle_skipped, ErrCycleInProgress)
		return Result{}, ErrCycleInProgress
	}
	defer e.running.Store(false)

	result := Result{
		ID:        uuid.NewString(),
		StartedAt: e.time.Now(),
	}

	ctx, span := tracer.Start(context.WithoutCancel(ctx), "RunCycle")
	defer span.End()
	span.SetAttributes(attribute.String("cycle.id", result.ID))

	result.visit(StateIdle)
	err := e.runCycle(ctx, &result)
	span.SetAttributes(
		attribute.String("cycle.kind", string(result.Kind)),
		attribute.Int("cycle.fetches", result.Fetches),
		attribute.Bool("cycle.new_records", result.NewRecords),
	)
	if err != nil {
		failedIn := StateIdle
		if len(result.States) > 0 {
			failedIn = result.States[len(result.States)-1]
		}
		result.visit(StateFailed)
		result.NewRecords = false

		err = fmt.Errorf("sync cycle %s failed in %s: %w", result.ID, failedIn, err)
		e.tel.ReportBroken(report_cycle, err, result.ID, string(failedIn))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	result.visit(StateDone)
	e.tel.ReportDebug(
		"cycle done",
		result.ID,
		string(result.Kind),
		telemetry.KV{Key: "fetches", Value: result.Fetches},
		telemetry.KV{Key: "scores", Value: result.ScoresWritten},
		telemetry.KV{Key: "playlogs", Value: result.PlaylogsWritten},
	)

	if result.NewRecords && e.notifier != nil {
		err := e.notifier.NotifyNewRecords(ctx, result)
		if err != nil {
			e.tel.ReportWarning(report_notify, err, result.ID)
		}
	}
	return result, nil
}

func (e *Engine) runCycle(ctx context.Context, result *Result) error {
	result.visit(StateCheckingMaintenanceWindow)
	if e.maintenance.Contains(result.StartedAt) {
		result.Maintenance = true
		e.tel.ReportDebug("inside maintenance window, skipping cycle", result.StartedAt.Format(time.DateTime))
		return nil
	}

	result.visit(StateAuthenticating)
	err := e.site.EnsureAuthenticated(ctx)
	if err != nil {
		return err
	}

	result.visit(StateFetchingPlayerData)
	body, err := e.fetch(ctx, result, dxnet.PagePlayerData)
	if err != nil {
		return err
	}
	current, err := parse.PlayerData(body)
	if err != nil {
		return err
	}

	result.visit(StateDecidingSyncKind)
	prev, err := e.store.Player(ctx)
	if err != nil {
		return err
	}
	result.Kind = DecideSyncKind(prev, current)

	// everything is fetched before the transaction opens, readers of the
	// store are never blocked on the network
	scrapedAt := e.time.Now()
	var scores []records.ScoreRecord
	switch result.Kind {
	case records.SYNC_KIND_NOOP:
		result.visit(StateNoOp)
		result.Player = prev
		return nil
	case records.SYNC_KIND_FULL:
		result.visit(StateFullSync)
		scores, err = e.scores(ctx, result, scrapedAt)
		if err != nil {
			return err
		}
	case records.SYNC_KIND_INCREMENTAL:
		result.visit(StateIncrementalSync)
	}
	plays, err := e.recentPlays(ctx, result, current, scrapedAt)
	if err != nil {
		return err
	}

	tx, discard, commit, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer discard()

	stored, err := tx.Snapshot(ctx)
	if err != nil {
		return err
	}
	if !sameSnapshot(prev, stored) {
		return ErrSnapshotChanged
	}

	err = tx.UpsertScores(ctx, scores)
	if err != nil {
		return err
	}
	result.ScoresWritten = len(scores)

	// right after a full sync the score table is complete, anything it lacks
	// was not played before
	if result.Kind == records.SYNC_KIND_INCREMENTAL && prev.LastSyncKind != records.SYNC_KIND_FULL {
		scored, err := tx.ScoreKeys(ctx)
		if err != nil {
			return err
		}
		played, err := tx.PlayedKeys(ctx)
		if err != nil {
			return err
		}
		result.FirstPlays = markFirstPlays(plays, scored, played)
		e.tel.ReportCount(report_first_plays, int64(result.FirstPlays))
	}

	inserted, err := tx.UpsertPlaylogs(ctx, plays)
	if err != nil {
		return err
	}
	result.PlaylogsWritten = inserted
	e.tel.ReportCount(report_inserted_plays, int64(inserted))

	result.visit(StatePersistingSnapshot)
	current.LastSyncKind = result.Kind
	current.UpdatedAt = e.time.Now()
	err = tx.PersistSnapshot(ctx, current)
	if err != nil {
		return err
	}
	err = commit()
	if err != nil {
		return err
	}
	result.Player = &current

	// seeding the store is not news
	result.NewRecords = result.Kind == records.SYNC_KIND_INCREMENTAL && result.PlaylogsWritten > 0
	return nil
}

func sameSnapshot(a, b *records.PlayerSnapshot) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.TotalPlayCount == b.TotalPlayCount &&
		a.LastSyncKind == b.LastSyncKind &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

func (e *Engine) fetch(ctx context.Context, result *Result, endpoint string) ([]byte, error) {
	result.Fetches++
	return e.site.Fetch(ctx, endpoint)
}

func (e *Engine) scores(ctx context.Context, result *Result, scrapedAt time.Time) ([]records.ScoreRecord, error) {
	var scores []records.ScoreRecord
	for _, difficulty := range records.Difficulties {
		body, err := e.fetch(ctx, result, dxnet.PageScores(difficulty))
		if err != nil {
			return nil, fmt.Errorf("fetch %s scores: %w", difficulty, err)
		}
		page, err := parse.ScoreList(body, difficulty)
		if err != nil {
			return nil, fmt.Errorf("parse %s scores: %w", difficulty, err)
		}
		e.recordSkipped(result, page.Skipped)
		for _, score := range page.Records {
			score.ScrapedAt = scrapedAt
			scores = append(scores, score)
		}
	}
	return scores, nil
}

func (e *Engine) recentPlays(ctx context.Context, result *Result, current records.PlayerSnapshot, scrapedAt time.Time) ([]records.PlayLogRecord, error) {
	body, err := e.fetch(ctx, result, dxnet.PageRecent)
	if err != nil {
		return nil, fmt.Errorf("fetch recent plays: %w", err)
	}
	page, err := parse.Recent(body, e.time.Location())
	if err != nil {
		return nil, fmt.Errorf("parse recent plays: %w", err)
	}
	e.recordSkipped(result, page.Skipped)

	plays := annotateCredits(page.Records, current.TotalPlayCount)
	for i := range plays {
		plays[i].ScrapedAt = scrapedAt
	}
	return plays, nil
}

func (e *Engine) recordSkipped(result *Result, skipped []*parse.ParseError) {
	for _, row := range skipped {
		e.tel.ReportWarning(report_parse_skip, row, row.Raw)
	}
	result.Skipped = append(result.Skipped, skipped...)
}

// IsNetworkError tells if a cycle failed because the site could not be
// reached, as opposed to a login or storage problem.
func IsNetworkError(err error) bool {
	return errors.Is(err, dxnet.ErrNetwork)
}
