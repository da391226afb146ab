package records

import (
	"fmt"
	"strings"
)

// ChartType is the chart variant of a song.
type ChartType int

const (
	CHART_STD ChartType = iota
	CHART_DX
)

var chartTypeNames = [...]string{"STD", "DX"}

func (c ChartType) String() string {
	if c < 0 || int(c) >= len(chartTypeNames) {
		return fmt.Sprintf("ChartType(%d)", int(c))
	}
	return chartTypeNames[c]
}

// ParseChartType accepts the canonical display name case-insensitively.
func ParseChartType(s string) (ChartType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STD", "STANDARD":
		return CHART_STD, nil
	case "DX":
		return CHART_DX, nil
	}
	return 0, fmt.Errorf("unknown chart type '%s'", s)
}

// Difficulty is the difficulty category of a chart, the numeric value matches
// the `diff` parameter of the score list pages.
type Difficulty int

const (
	DIFFICULTY_BASIC Difficulty = iota
	DIFFICULTY_ADVANCED
	DIFFICULTY_EXPERT
	DIFFICULTY_MASTER
	DIFFICULTY_REMASTER
)

// Difficulties lists every difficulty in page order.
var Difficulties = []Difficulty{
	DIFFICULTY_BASIC,
	DIFFICULTY_ADVANCED,
	DIFFICULTY_EXPERT,
	DIFFICULTY_MASTER,
	DIFFICULTY_REMASTER,
}

var difficultyNames = [...]string{"BASIC", "ADVANCED", "EXPERT", "MASTER", "Re:MASTER"}

func (d Difficulty) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
	return difficultyNames[d]
}

func (d Difficulty) Valid() bool {
	return d >= DIFFICULTY_BASIC && d <= DIFFICULTY_REMASTER
}

// DifficultyFromIndex maps a score list page index (0..4) to a Difficulty.
func DifficultyFromIndex(idx int) (Difficulty, error) {
	d := Difficulty(idx)
	if !d.Valid() {
		return 0, fmt.Errorf("difficulty index must be 0..4, got %d", idx)
	}
	return d, nil
}

// ParseDifficulty accepts display names ("Re:MASTER") and their lowercase
// compact forms ("remaster").
func ParseDifficulty(s string) (Difficulty, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, ":", "")
	switch normalized {
	case "basic":
		return DIFFICULTY_BASIC, nil
	case "advanced":
		return DIFFICULTY_ADVANCED, nil
	case "expert":
		return DIFFICULTY_EXPERT, nil
	case "master":
		return DIFFICULTY_MASTER, nil
	case "remaster":
		return DIFFICULTY_REMASTER, nil
	}
	return 0, fmt.Errorf("unknown difficulty '%s'", s)
}

// Rank is the letter rank glyph shown next to an achievement.
type Rank string

const (
	RANK_SSS_PLUS Rank = "SSS+"
	RANK_SSS      Rank = "SSS"
	RANK_SS_PLUS  Rank = "SS+"
	RANK_SS       Rank = "SS"
	RANK_S_PLUS   Rank = "S+"
	RANK_S        Rank = "S"
	RANK_AAA      Rank = "AAA"
	RANK_AA       Rank = "AA"
	RANK_A        Rank = "A"
	RANK_BBB      Rank = "BBB"
	RANK_BB       Rank = "BB"
	RANK_B        Rank = "B"
	RANK_C        Rank = "C"
	RANK_D        Rank = "D"
)

// rankGlyphs maps both score list icon keys (sssp) and playlog icon stems
// (sssplus) to their rank.
var rankGlyphs = map[string]Rank{
	"sssp": RANK_SSS_PLUS, "sssplus": RANK_SSS_PLUS,
	"sss": RANK_SSS,
	"ssp": RANK_SS_PLUS, "ssplus": RANK_SS_PLUS,
	"ss": RANK_SS,
	"sp": RANK_S_PLUS, "splus": RANK_S_PLUS,
	"s":   RANK_S,
	"aaa": RANK_AAA,
	"aa":  RANK_AA,
	"a":   RANK_A,
	"bbb": RANK_BBB,
	"bb":  RANK_BB,
	"b":   RANK_B,
	"c":   RANK_C,
	"d":   RANK_D,
}

// RankFromGlyph resolves an icon key to a rank.
func RankFromGlyph(key string) (Rank, bool) {
	r, ok := rankGlyphs[strings.ToLower(strings.TrimSpace(key))]
	return r, ok
}

// FcStatus is the combo lamp of a play.
type FcStatus string

const (
	FC_AP_PLUS FcStatus = "AP+"
	FC_AP      FcStatus = "AP"
	FC_FC_PLUS FcStatus = "FC+"
	FC_FC      FcStatus = "FC"
)

var fcGlyphs = map[string]FcStatus{
	"app": FC_AP_PLUS,
	"ap":  FC_AP,
	"fcp": FC_FC_PLUS,
	"fc":  FC_FC,
}

func FcFromGlyph(key string) (FcStatus, bool) {
	f, ok := fcGlyphs[strings.ToLower(strings.TrimSpace(key))]
	return f, ok
}

// SyncStatus is the sync lamp of a play.
type SyncStatus string

const (
	SYNC_FDX_PLUS SyncStatus = "FDX+"
	SYNC_FDX      SyncStatus = "FDX"
	SYNC_FS_PLUS  SyncStatus = "FS+"
	SYNC_FS       SyncStatus = "FS"
	SYNC_SYNC     SyncStatus = "SYNC"
)

var syncGlyphs = map[string]SyncStatus{
	"fdxp": SYNC_FDX_PLUS,
	"fdx":  SYNC_FDX,
	"fsp":  SYNC_FS_PLUS,
	"fs":   SYNC_FS,
	"sync": SYNC_SYNC,
}

func SyncFromGlyph(key string) (SyncStatus, bool) {
	s, ok := syncGlyphs[strings.ToLower(strings.TrimSpace(key))]
	return s, ok
}

// Priority orders sync lamps, a row showing several keeps the highest one.
func (s SyncStatus) Priority() int {
	switch s {
	case SYNC_FDX_PLUS:
		return 5
	case SYNC_FDX:
		return 4
	case SYNC_FS_PLUS:
		return 3
	case SYNC_FS:
		return 2
	case SYNC_SYNC:
		return 1
	}
	return 0
}

// MergeSync returns whichever of the two lamps has the higher priority, nil
// values lose to anything.
func MergeSync(existing, candidate *SyncStatus) *SyncStatus {
	if candidate == nil {
		return existing
	}
	if existing == nil {
		return candidate
	}
	if candidate.Priority() > existing.Priority() {
		return candidate
	}
	return existing
}

// ParseRank, ParseFc and ParseSync read back canonical strings from storage.

func ParseRank(s string) (Rank, error) {
	for _, r := range rankGlyphs {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown rank '%s'", s)
}

func ParseFc(s string) (FcStatus, error) {
	for _, f := range fcGlyphs {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown fc status '%s'", s)
}

func ParseSync(s string) (SyncStatus, error) {
	for _, v := range syncGlyphs {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown sync status '%s'", s)
}
