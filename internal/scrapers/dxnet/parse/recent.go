package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"maisync/internal/records"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	recentTopSel        = cascadia.MustCompile(".playlog_top_container")
	recentEntrySel      = cascadia.MustCompile("div.p_10.t_l.v_b")
	recentDiffSel       = cascadia.MustCompile("img.playlog_diff")
	recentSubtitleSel   = cascadia.MustCompile(".sub_title")
	recentContainerSel  = cascadia.MustCompile(`div[class*="playlog_"][class*="_container"]`)
	recentTitleBlockSel = cascadia.MustCompile("div.basic_block")
	recentLevelSel      = cascadia.MustCompile(".playlog_level_icon")
	recentAchieveSel    = cascadia.MustCompile(".playlog_achievement_txt")
	recentNewRecordSel  = cascadia.MustCompile("img.playlog_achievement_newrecord")
	recentRankSel       = cascadia.MustCompile("img.playlog_scorerank")
	recentDxScoreSel    = cascadia.MustCompile(".playlog_score_block .white")
	recentChartTypeSel  = cascadia.MustCompile("img.playlog_music_kind_icon")
	recentCoverSel      = cascadia.MustCompile("img.music_img")
	recentIdxSel        = cascadia.MustCompile(`input[name="idx"]`)
	recentImgSel        = cascadia.MustCompile("img")
)

// PlayedAtLayout is the timestamp format of the recent page subtitle.
const PlayedAtLayout = "2006/01/02 15:04"

// Recent parses the recent plays page, newest first. Timestamps are read in
// the given location.
func Recent(html []byte, location *time.Location) (Result[records.PlayLogRecord], error) {
	doc, err := newDocument(html)
	if err != nil {
		return Result[records.PlayLogRecord]{}, err
	}
	if location == nil {
		location = time.UTC
	}

	result := Result[records.PlayLogRecord]{}
	doc.FindMatcher(recentTopSel).Each(func(i int, top *goquery.Selection) {
		entry := top.ClosestMatcher(recentEntrySel)
		if entry.Length() == 0 {
			result.Skipped = append(result.Skipped, &ParseError{
				Page: "recent",
				Row:  i,
				Raw:  collapsedText(top),
				Err:  fmt.Errorf("no enclosing playlog entry"),
			})
			return
		}

		record, err := playLogRecord(entry, location)
		if err != nil {
			result.Skipped = append(result.Skipped, &ParseError{
				Page: "recent",
				Row:  i,
				Raw:  collapsedText(entry),
				Err:  err,
			})
			return
		}
		result.Records = append(result.Records, record)
	})

	return result, nil
}

func playLogRecord(entry *goquery.Selection, location *time.Location) (records.PlayLogRecord, error) {
	var titleBlock *goquery.Selection
	entry.FindMatcher(recentContainerSel).EachWithBreak(func(_ int, container *goquery.Selection) bool {
		block := container.FindMatcher(recentTitleBlockSel).First()
		if block.Length() == 0 {
			return true
		}
		titleBlock = block
		return false
	})
	if titleBlock == nil {
		return records.PlayLogRecord{}, fmt.Errorf("missing title cell (div.basic_block)")
	}

	idx, _ := entry.FindMatcher(recentIdxSel).First().Attr("value")
	idx = strings.TrimSpace(idx)
	if idx == "" {
		return records.PlayLogRecord{}, fmt.Errorf("missing playlog idx")
	}

	level := collapsedText(titleBlock.FindMatcher(recentLevelSel).First())
	title := stripLevel(collapsedText(titleBlock), level)

	fallback, _ := entry.FindMatcher(recentCoverSel).First().Attr("src")
	if fallback == "" {
		fallback = collapsedText(entry)
	}

	record := records.PlayLogRecord{
		PlaylogIdx: idx,
		SongKey:    records.SongKey(title, fallback),
		Title:      title,
		ChartType:  records.CHART_STD,
	}
	if level != "" {
		record.Level = ptr(level)
	}

	if src, ok := entry.FindMatcher(recentChartTypeSel).First().Attr("src"); ok {
		if chartType, ok := chartTypeFromIcon(src); ok {
			record.ChartType = chartType
		}
	}
	if src, ok := entry.FindMatcher(recentDiffSel).First().Attr("src"); ok {
		if difficulty, ok := difficultyFromIcon(src); ok {
			record.Difficulty = ptr(difficulty)
		}
	}

	track, playedAtText := parseSubtitle(collapsedText(entry.FindMatcher(recentSubtitleSel).First()))
	record.Track = track
	if playedAtText != "" {
		record.PlayedAtText = ptr(playedAtText)
		playedAt, err := time.ParseInLocation(PlayedAtLayout, playedAtText, location)
		if err == nil {
			record.PlayedAt = ptr(playedAt)
		}
	}

	if percent, ok := parsePercent(collapsedText(entry.FindMatcher(recentAchieveSel).First())); ok {
		record.Achievement = ptr(records.AchievementFromPercent(percent))
	}
	if entry.FindMatcher(recentNewRecordSel).Length() > 0 {
		record.AchievementNewRecord = true
	}

	if src, ok := entry.FindMatcher(recentRankSel).First().Attr("src"); ok {
		if stem, ok := iconStem(src); ok {
			if rank, ok := records.RankFromGlyph(stem); ok {
				record.Rank = ptr(rank)
			}
		}
	}

	if cur, max, ok := parseFraction(collapsedText(entry.FindMatcher(recentDxScoreSel).First())); ok {
		record.DxScore = ptr(cur)
		record.DxScoreMax = ptr(max)
	}

	entry.FindMatcher(recentImgSel).Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		stem, ok := iconStem(src)
		if !ok {
			return
		}
		if stem == "newrecord" {
			record.AchievementNewRecord = true
			return
		}
		if key, ok := strings.CutPrefix(stem, "fc_"); ok && record.FC == nil {
			if fc, ok := records.FcFromGlyph(key); ok {
				record.FC = ptr(fc)
			}
			return
		}
		if key, ok := strings.CutPrefix(stem, "sync_"); ok {
			if sync, ok := records.SyncFromGlyph(key); ok {
				record.Sync = records.MergeSync(record.Sync, ptr(sync))
			}
		}
	})

	return record, nil
}

var (
	subtitleTrack    = regexp.MustCompile(`TRACK\s*(\d{1,2})`)
	subtitlePlayedAt = regexp.MustCompile(`\d{4}/\d{2}/\d{2} \d{2}:\d{2}`)
)

// parseSubtitle reads "TRACK 04 2026/01/23 12:34" into its track number and
// timestamp text.
func parseSubtitle(text string) (*int64, string) {
	var track *int64
	if match := subtitleTrack.FindStringSubmatch(text); match != nil {
		value, err := strconv.ParseInt(match[1], 10, 64)
		if err == nil {
			track = ptr(value)
		}
	}
	return track, subtitlePlayedAt.FindString(text)
}

func stripLevel(raw, level string) string {
	s := strings.TrimSpace(raw)
	if level != "" {
		s = strings.TrimPrefix(s, level)
	}
	return strings.TrimSpace(s)
}

func difficultyFromIcon(src string) (records.Difficulty, bool) {
	stem, ok := iconStem(src)
	if !ok {
		return 0, false
	}
	name, ok := strings.CutPrefix(stem, "diff_")
	if !ok {
		return 0, false
	}
	difficulty, err := records.ParseDifficulty(name)
	if err != nil {
		return 0, false
	}
	return difficulty, true
}
