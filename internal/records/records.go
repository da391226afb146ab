// Package records holds the typed play records mirrored from maimai DX NET.
package records

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"time"
)

// SyncKind is the scope of a sync cycle.
type SyncKind string

const (
	SYNC_KIND_NONE        SyncKind = ""
	SYNC_KIND_FULL        SyncKind = "full"
	SYNC_KIND_INCREMENTAL SyncKind = "incremental"
	SYNC_KIND_NOOP        SyncKind = "noop"
)

// PlayerSnapshot is the single persisted summary of the player.
type PlayerSnapshot struct {
	UserName                string
	Rating                  int64
	CurrentVersionPlayCount int64
	TotalPlayCount          int64
	// LastSyncKind is the kind of the cycle that last wrote the snapshot.
	LastSyncKind SyncKind
	UpdatedAt    time.Time
}

type ScoreRecord struct {
	SongKey    string
	Title      string
	ChartType  ChartType
	Difficulty Difficulty
	Level      *string
	// Achievement is the achievement percent multiplied by 10,000.
	Achievement *int64
	Rank        *Rank
	FC          *FcStatus
	Sync        *SyncStatus
	DxScore     *int64
	DxScoreMax  *int64
	SourceIdx   *string
	ScrapedAt   time.Time
}

type PlayLogRecord struct {
	PlaylogIdx   string
	PlayedAt     *time.Time
	PlayedAtText *string
	// Track is the position of the play within its credit, starting at 1.
	Track      *int64
	SongKey    string
	Title      string
	ChartType  ChartType
	Difficulty *Difficulty
	Level      *string

	Achievement          *int64
	AchievementNewRecord bool
	Rank                 *Rank
	FC                   *FcStatus
	Sync                 *SyncStatus
	DxScore              *int64
	DxScoreMax           *int64

	CreditPlayCount *int64
	FirstPlay       bool
	ScrapedAt       time.Time
}

// ChartKey identifies a single chart independent of how it was scraped.
type ChartKey struct {
	SongKey    string
	ChartType  ChartType
	Difficulty Difficulty
}

func (s ScoreRecord) ChartKey() ChartKey {
	return ChartKey{SongKey: s.SongKey, ChartType: s.ChartType, Difficulty: s.Difficulty}
}

// ChartKey returns false if the play has no known difficulty.
func (p PlayLogRecord) ChartKey() (ChartKey, bool) {
	if p.Difficulty == nil {
		return ChartKey{}, false
	}
	return ChartKey{SongKey: p.SongKey, ChartType: p.ChartType, Difficulty: *p.Difficulty}, true
}

const emptyKeyMarker = "__empty__"

// NormalizeTitle trims and case-folds a title.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// SongKey derives a stable, never empty key for a song. The normalized title is
// hashed when present, otherwise the fallback (a cover image reference or the
// raw row text) is hashed in its own namespace.
func SongKey(title, fallback string) string {
	normalized := NormalizeTitle(title)
	input := normalized
	if normalized == "" {
		fallback = strings.TrimSpace(fallback)
		if fallback == "" {
			fallback = emptyKeyMarker
		}
		input = "fallback:" + fallback
	}
	digest := sha256.Sum256([]byte(input))
	return hex.EncodeToString(digest[:])
}

// AchievementFromPercent converts a percentage (99.8012) to its stored integer
// form (998012).
func AchievementFromPercent(percent float64) int64 {
	return int64(math.Round(percent * 10000))
}

// AchievementPercent converts a stored achievement back into a percentage.
func AchievementPercent(achievement int64) float64 {
	return float64(achievement) / 10000
}
