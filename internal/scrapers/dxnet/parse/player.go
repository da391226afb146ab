package parse

import (
	"fmt"
	"strconv"
	"strings"

	"maisync/internal/records"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	playerNameSel   = cascadia.MustCompile(".name_block")
	playerRatingSel = cascadia.MustCompile(".rating_block")
	playerCountsSel = cascadia.MustCompile("div.m_5.m_b_5.t_r.f_12")
)

const (
	currentVersionPlayCountLabel = "play count of current version"
	totalPlayCountLabel          = "maimaiDX total play count"
)

// PlayerData parses the player summary page. Unlike row pages, a missing field
// here fails the whole page since the sync decision depends on it.
func PlayerData(html []byte) (records.PlayerSnapshot, error) {
	doc, err := newDocument(html)
	if err != nil {
		return records.PlayerSnapshot{}, err
	}

	userName := collapsedText(doc.FindMatcher(playerNameSel).First())
	if userName == "" {
		return records.PlayerSnapshot{}, fmt.Errorf("player data: missing user name (.name_block)")
	}

	ratingDigits := digitsOnly(collapsedText(doc.FindMatcher(playerRatingSel).First()))
	if ratingDigits == "" {
		return records.PlayerSnapshot{}, fmt.Errorf("player data: missing rating (.rating_block)")
	}
	rating, err := strconv.ParseInt(ratingDigits, 10, 64)
	if err != nil {
		return records.PlayerSnapshot{}, fmt.Errorf("player data: parse rating: %w", err)
	}

	var countsText string
	doc.FindMatcher(playerCountsSel).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		text := collapsedText(block)
		if strings.Contains(text, currentVersionPlayCountLabel) {
			countsText = text
			return false
		}
		return true
	})
	if countsText == "" {
		return records.PlayerSnapshot{}, fmt.Errorf("player data: missing play count block")
	}

	current, ok := numberAfter(countsText, currentVersionPlayCountLabel)
	if !ok {
		return records.PlayerSnapshot{}, fmt.Errorf("player data: missing current version play count")
	}
	total, ok := numberAfter(countsText, totalPlayCountLabel)
	if !ok {
		return records.PlayerSnapshot{}, fmt.Errorf("player data: missing total play count")
	}

	return records.PlayerSnapshot{
		UserName:                userName,
		Rating:                  rating,
		CurrentVersionPlayCount: current,
		TotalPlayCount:          total,
	}, nil
}
