package dxnet

import (
	"fmt"
	"net/url"
	"strings"

	"maisync/internal/records"
)

const DefaultBaseUrl = "https://maimaidx-eng.com"

const (
	PagePlayerData = "/maimai-mobile/playerData/"
	PageRecent     = "/maimai-mobile/record/"
)

// PageScores is the score list page of a single difficulty across all genres.
func PageScores(difficulty records.Difficulty) string {
	return fmt.Sprintf("/maimai-mobile/record/musicGenre/search/?genre=99&diff=%d", int(difficulty))
}

var expiredMarkers = []string{
	`id="sidForm"`,
	"Please login again.",
	"ERROR CODE",
	"title_error.png",
	"The connection time has been expired",
}

// looksLikeLogin tells if a response landed on the login form, the error page
// or an expiry notice instead of the requested page.
func looksLikeLogin(final *url.URL, body []byte) bool {
	if final != nil {
		if strings.HasPrefix(final.Path, "/maimai-mobile/error/") {
			return true
		}
		if strings.Contains(final.Path, "/common_auth/login") {
			return true
		}
		if strings.HasSuffix(final.Hostname(), "am-all.net") &&
			strings.HasPrefix(final.Path, "/common_auth/") {
			return true
		}
	}
	text := string(body)
	for _, marker := range expiredMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
