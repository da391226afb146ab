package recordsync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"maisync/internal/components/chrono"
	"maisync/internal/components/telemetry"
	"maisync/internal/components/testutil"
	"maisync/internal/records"
	"maisync/internal/scrapers/dxnet"
	"maisync/internal/store"
)

var tokyo = time.FixedZone("JST", 9*60*60)

type fakeSite struct {
	mutex     sync.Mutex
	pages     map[string]string
	fetchErrs map[string]error
	fetches   []string
	authCalls int
	// authGate, when set, blocks EnsureAuthenticated until closed. authEntered
	// is closed once a call is blocked on it.
	authGate    chan struct{}
	authEntered chan struct{}
	// fetchGate does the same for fetches of gatedPage.
	gatedPage    string
	fetchGate    chan struct{}
	fetchEntered chan struct{}
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:     map[string]string{},
		fetchErrs: map[string]error{},
	}
}

func (s *fakeSite) EnsureAuthenticated(ctx context.Context) error {
	s.mutex.Lock()
	s.authCalls++
	gate := s.authGate
	entered := s.authEntered
	s.mutex.Unlock()

	if gate != nil {
		close(entered)
		<-gate
	}
	return ctx.Err()
}

func (s *fakeSite) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	s.mutex.Lock()
	gate := s.fetchGate
	entered := s.fetchEntered
	gated := endpoint == s.gatedPage
	s.mutex.Unlock()

	if gate != nil && gated {
		close(entered)
		<-gate
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", dxnet.ErrNetwork, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.fetches = append(s.fetches, endpoint)
	if err := s.fetchErrs[endpoint]; err != nil {
		return nil, err
	}
	page, ok := s.pages[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: no page at %s", dxnet.ErrNetwork, endpoint)
	}
	return []byte(page), nil
}

func (s *fakeSite) takeFetches() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := s.fetches
	s.fetches = nil
	return out
}

func (s *fakeSite) setPage(endpoint, html string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pages[endpoint] = html
}

func playerPage(total int64) string {
	return fmt.Sprintf(`<html><body>
<div class="name_block">DELTA</div>
<div class="rating_block">15000</div>
<div class="m_5 m_b_5 t_r f_12">play count of current version：10<br>maimaiDX total play count：%d</div>
</body></html>`, total)
}

type scoreRow struct {
	title   string
	percent string
}

func scorePage(rows []scoreRow) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i, row := range rows {
		score := ""
		if row.percent != "" {
			score = fmt.Sprintf(`<div class="music_score_block">%s</div>`, row.percent)
		}
		fmt.Fprintf(
			&b,
			`<div class="w_450 m_15 p_r f_0"><div class="music_master_score_back pointer p_3"><div class="music_lv_block">13</div><div class="music_name_block">%s</div>%s<input type="hidden" name="idx" value="row-%d"></div><img class="music_kind_icon" src="https://maimaidx-eng.com/maimai-mobile/img/music_dx.png"></div>`,
			row.title, score, i,
		)
	}
	b.WriteString("</body></html>")
	return b.String()
}

type playRow struct {
	idx       string
	track     int
	playedAt  string
	title     string
	diff      string
	percent   string
	newRecord bool
}

func recentPage(rows []playRow) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, row := range rows {
		badge := ""
		if row.newRecord {
			badge = `<img class="playlog_achievement_newrecord" src="https://maimaidx-eng.com/maimai-mobile/img/playlog/newrecord.png">`
		}
		idx := ""
		if row.idx != "" {
			idx = fmt.Sprintf(`<input type="hidden" name="idx" value="%s">`, row.idx)
		}
		fmt.Fprintf(
			&b,
			`<div class="p_10 t_l f_0 v_b"><div class="playlog_top_container"><img class="playlog_diff" src="https://maimaidx-eng.com/maimai-mobile/img/diff_%s.png"><div class="sub_title"><span>TRACK %02d</span><span>%s</span></div></div><div class="playlog_%s_container"><div class="basic_block"><div class="playlog_level_icon">13</div>%s</div>%s<img class="playlog_music_kind_icon" src="https://maimaidx-eng.com/maimai-mobile/img/music_dx.png"><div class="playlog_achievement_txt">%s</div>%s</div></div>`,
			row.diff, row.track, row.playedAt, row.diff, row.title, badge, row.percent, idx,
		)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// seedSite serves five score pages with 2, 3, 4, 5 and 6 rows and a recent
// page with three plays of a single credit.
func seedSite(site *fakeSite, total int64) (scoreRows int, playRows int) {
	site.setPage(dxnet.PagePlayerData, playerPage(total))
	for _, difficulty := range records.Difficulties {
		rows := []scoreRow{}
		for i := 0; i < int(difficulty)+2; i++ {
			percent := "97.0000%"
			if i == 0 {
				percent = "99.8012%"
			}
			rows = append(rows, scoreRow{title: fmt.Sprintf("Song %d", i), percent: percent})
		}
		site.setPage(dxnet.PageScores(difficulty), scorePage(rows))
		scoreRows += len(rows)
	}
	plays := []playRow{
		{idx: "p3", track: 3, playedAt: "2026/01/23 12:50", title: "Song 2", diff: "master", percent: "98.0000%"},
		{idx: "p2", track: 2, playedAt: "2026/01/23 12:45", title: "Song 1", diff: "master", percent: "97.5000%"},
		{idx: "p1", track: 1, playedAt: "2026/01/23 12:40", title: "Song 0", diff: "master", percent: "99.8012%"},
	}
	site.setPage(dxnet.PageRecent, recentPage(plays))
	return scoreRows, len(plays)
}

type testEnv struct {
	site   *fakeSite
	store  store.Store
	clock  *chrono.FixedTime
	tel    *telemetry.Recorder
	engine *Engine
}

func setupEngine(t testing.TB, opts Options) testEnv {
	clock := chrono.NewFixedTime(time.Date(2026, 1, 23, 13, 0, 0, 0, tokyo))
	tel := &telemetry.Recorder{}
	st := store.NewStore(testutil.SetupDB(t), tokyo, tel)
	site := newFakeSite()
	return testEnv{
		site:   site,
		store:  st,
		clock:  clock,
		tel:    tel,
		engine: NewEngine(site, st, clock, tel, opts),
	}
}
