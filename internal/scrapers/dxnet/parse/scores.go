package parse

import (
	"fmt"
	"strings"

	"maisync/internal/records"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	scoreEntrySel      = cascadia.MustCompile(`div[class*="music_"][class*="_score_back"]`)
	scoreTitleSel      = cascadia.MustCompile(".music_name_block")
	scoreBlockSel      = cascadia.MustCompile(".music_score_block")
	scoreLevelSel      = cascadia.MustCompile(".music_lv_block")
	scoreIconSel       = cascadia.MustCompile("img")
	scoreChartTypeSel  = cascadia.MustCompile("img.music_kind_icon")
	scoreIdxSel        = cascadia.MustCompile(`input[name="idx"]`)
	scoreIconKeyPrefix = "music_icon_"
)

// ScoreList parses one difficulty page of the score list, difficulty is the
// page index (0..4) the html was fetched with.
func ScoreList(html []byte, difficulty records.Difficulty) (Result[records.ScoreRecord], error) {
	if !difficulty.Valid() {
		return Result[records.ScoreRecord]{}, fmt.Errorf("score list: invalid difficulty %d", int(difficulty))
	}
	doc, err := newDocument(html)
	if err != nil {
		return Result[records.ScoreRecord]{}, err
	}

	page := fmt.Sprintf("scores[%s]", difficulty)
	result := Result[records.ScoreRecord]{}
	doc.FindMatcher(scoreEntrySel).Each(func(i int, entry *goquery.Selection) {
		record, err := scoreRecord(entry, difficulty)
		if err != nil {
			result.Skipped = append(result.Skipped, &ParseError{
				Page: page,
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

func scoreRecord(entry *goquery.Selection, difficulty records.Difficulty) (records.ScoreRecord, error) {
	titleCell := entry.FindMatcher(scoreTitleSel).First()
	if titleCell.Length() == 0 {
		return records.ScoreRecord{}, fmt.Errorf("missing title cell (.music_name_block)")
	}
	title := collapsedText(titleCell)

	record := records.ScoreRecord{
		SongKey:    records.SongKey(title, collapsedText(entry)),
		Title:      title,
		ChartType:  chartTypeNear(entry, scoreChartTypeSel),
		Difficulty: difficulty,
	}

	if idx, ok := entry.FindMatcher(scoreIdxSel).First().Attr("value"); ok && idx != "" {
		record.SourceIdx = ptr(idx)
	}
	if level := collapsedText(entry.FindMatcher(scoreLevelSel).First()); level != "" {
		record.Level = ptr(level)
	}

	entry.FindMatcher(scoreBlockSel).Each(func(_ int, block *goquery.Selection) {
		text := collapsedText(block)
		if record.Achievement == nil {
			if percent, ok := parsePercent(text); ok {
				record.Achievement = ptr(records.AchievementFromPercent(percent))
				return
			}
		}
		if record.DxScore == nil {
			if cur, max, ok := parseFraction(text); ok {
				record.DxScore = ptr(cur)
				record.DxScoreMax = ptr(max)
			}
		}
	})

	entry.FindMatcher(scoreIconSel).Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		key, ok := scoreIconKey(src)
		if !ok {
			return
		}
		if record.Rank == nil {
			if rank, ok := records.RankFromGlyph(key); ok {
				record.Rank = ptr(rank)
			}
		}
		if record.FC == nil {
			if fc, ok := records.FcFromGlyph(key); ok {
				record.FC = ptr(fc)
			}
		}
		if sync, ok := records.SyncFromGlyph(key); ok {
			record.Sync = records.MergeSync(record.Sync, ptr(sync))
		}
	})

	return record, nil
}

// scoreIconKey returns "sssp" for ".../music_icon_sssp.png".
func scoreIconKey(src string) (string, bool) {
	stem, ok := iconStem(src)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(stem, scoreIconKeyPrefix)
}

// chartTypeNear looks for a chart kind icon in the entry and then in each of its
// ancestors, the score list places the icon next to the entry rather than in it.
func chartTypeNear(entry *goquery.Selection, iconSel cascadia.Selector) records.ChartType {
	scopes := append([]*goquery.Selection{entry}, splitSelection(entry.Parents())...)
	for _, scope := range scopes {
		src, ok := scope.FindMatcher(iconSel).First().Attr("src")
		if !ok {
			continue
		}
		if chartType, ok := chartTypeFromIcon(src); ok {
			return chartType
		}
	}
	return records.CHART_STD
}

func splitSelection(sel *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}

func chartTypeFromIcon(src string) (records.ChartType, bool) {
	if strings.Contains(src, "/img/music_dx.png") {
		return records.CHART_DX, true
	}
	if strings.Contains(src, "/img/music_standard.png") {
		return records.CHART_STD, true
	}
	return 0, false
}
