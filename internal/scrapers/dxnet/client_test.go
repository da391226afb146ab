package dxnet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"maisync/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form id="sidForm" action="/common_auth/login/sid/" method="post">
  <input type="text" name="sid">
  <input type="password" name="password">
  <input type="hidden" name="csrf" value="token-123">
  <input type="checkbox" name="retention" value="1">
</form>
</body></html>`

const errorPage = `<html><body><img src="/img/title_error.png"><div>ERROR CODE：200002</div></body></html>`

type fakeSite struct {
	mutex       sync.Mutex
	sid         string
	password    string
	token       int
	logins      int
	requests    map[string]int
	unavailable bool
	// dropNext closes the connection of that many protected page requests
	// without answering.
	dropNext int
	// alwaysExpired lists pages that show the expiry notice even to a valid
	// session.
	alwaysExpired map[string]bool
}

func newFakeSite(t testing.TB) (*fakeSite, *httptest.Server) {
	site := &fakeSite{
		sid:           "player",
		password:      "hunter2",
		requests:      map[string]int{},
		alwaysExpired: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/common_auth/login?site_id=maimaidxex", http.StatusFound)
	})
	mux.HandleFunc("GET /common_auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("POST /common_auth/login/sid/", func(w http.ResponseWriter, r *http.Request) {
		site.mutex.Lock()
		defer site.mutex.Unlock()

		ok := r.FormValue("sid") == site.sid &&
			r.FormValue("password") == site.password &&
			r.FormValue("retention") == "1" &&
			r.FormValue("csrf") == "token-123" &&
			r.Header.Get("referer") != ""
		if !ok {
			fmt.Fprint(w, loginPage)
			return
		}
		site.logins++
		site.token++
		http.SetCookie(w, &http.Cookie{
			Name:  DefaultSessionCookie,
			Value: fmt.Sprint(site.token),
			Path:  "/",
		})
		http.Redirect(w, r, "/maimai-mobile/home/", http.StatusFound)
	})
	mux.HandleFunc("GET /maimai-mobile/error/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, errorPage)
	})
	mux.HandleFunc("GET /maimai-mobile/", func(w http.ResponseWriter, r *http.Request) {
		site.mutex.Lock()
		defer site.mutex.Unlock()

		site.requests[r.URL.RequestURI()]++
		if site.dropNext > 0 {
			site.dropNext--
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		if site.unavailable {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		cookie, err := r.Cookie(DefaultSessionCookie)
		if err != nil || cookie.Value != fmt.Sprint(site.token) || site.token == 0 {
			http.Redirect(w, r, "/maimai-mobile/error/", http.StatusFound)
			return
		}
		if site.alwaysExpired[r.URL.Path] {
			fmt.Fprint(w, "<html><body>Please login again.</body></html>")
			return
		}
		fmt.Fprintf(w, "<html><body>page %s</body></html>", r.URL.RequestURI())
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return site, server
}

// expire invalidates every issued session cookie.
func (s *fakeSite) expire() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.token += 100
}

func (s *fakeSite) loginCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.logins
}

func (s *fakeSite) requestCount(uri string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.requests[uri]
}

func testClient(t testing.TB, server *httptest.Server, cookiePath string, mutate func(cfg *Config)) (*Client, *telemetry.Recorder) {
	cfg := Config{
		BaseUrl:       server.URL,
		Sid:           "player",
		Password:      "hunter2",
		CookiePath:    cookiePath,
		SessionCookie: DefaultSessionCookie,
		FetchDelay:    time.Millisecond,
		Timeout:       5 * time.Second,
		RetryWait:     10 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	tel := &telemetry.Recorder{}
	client, err := NewClient(cfg, tel)
	require.NoError(t, err)
	return client, tel
}

func TestLoginAndFetch(t *testing.T) {
	site, server := newFakeSite(t)
	cookiePath := filepath.Join(t.TempDir(), "cookies.json")
	client, _ := testClient(t, server, cookiePath, nil)

	ctx := context.Background()
	require.NoError(t, client.EnsureAuthenticated(ctx))
	require.Equal(t, 1, site.loginCount())

	body, err := client.Fetch(ctx, PageScores(3))
	require.NoError(t, err)
	require.Contains(t, string(body), "diff=3")
	require.Equal(t, 1, site.loginCount())

	info, err := os.Stat(cookiePath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestPersistedSessionIsReused(t *testing.T) {
	site, server := newFakeSite(t)
	cookiePath := filepath.Join(t.TempDir(), "cookies.json")
	ctx := context.Background()

	first, _ := testClient(t, server, cookiePath, nil)
	require.NoError(t, first.EnsureAuthenticated(ctx))
	require.Equal(t, 1, site.loginCount())

	second, _ := testClient(t, server, cookiePath, nil)
	require.NoError(t, second.EnsureAuthenticated(ctx))
	_, err := second.Fetch(ctx, PagePlayerData)
	require.NoError(t, err)
	require.Equal(t, 1, site.loginCount())
}

func TestFetchLogsInAgainOnExpiry(t *testing.T) {
	site, server := newFakeSite(t)
	client, tel := testClient(t, server, "", nil)
	ctx := context.Background()

	require.NoError(t, client.EnsureAuthenticated(ctx))
	site.expire()

	body, err := client.Fetch(ctx, PagePlayerData)
	require.NoError(t, err)
	require.Contains(t, string(body), PagePlayerData)
	require.Equal(t, 2, site.loginCount())
	require.NotEmpty(t, tel.Reports("debug", report_client_relogin))
}

func TestFetchStillExpired(t *testing.T) {
	site, server := newFakeSite(t)
	site.alwaysExpired[PagePlayerData] = true
	client, _ := testClient(t, server, "", nil)
	ctx := context.Background()

	require.NoError(t, client.EnsureAuthenticated(ctx))
	_, err := client.Fetch(ctx, PagePlayerData)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, 2, site.loginCount())
}

func TestRejectedCredentials(t *testing.T) {
	site, server := newFakeSite(t)
	cookiePath := filepath.Join(t.TempDir(), "cookies.json")
	ctx := context.Background()

	good, _ := testClient(t, server, cookiePath, nil)
	require.NoError(t, good.EnsureAuthenticated(ctx))
	before, err := os.ReadFile(cookiePath)
	require.NoError(t, err)

	site.expire()
	bad, tel := testClient(t, server, cookiePath, func(cfg *Config) {
		cfg.Password = "wrong"
	})
	err = bad.EnsureAuthenticated(ctx)
	require.ErrorIs(t, err, ErrAuthentication)
	require.NotEmpty(t, tel.Reports("broken", report_client_login))

	after, err := os.ReadFile(cookiePath)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestUnavailable(t *testing.T) {
	site, server := newFakeSite(t)
	client, tel := testClient(t, server, "", nil)
	ctx := context.Background()

	require.NoError(t, client.EnsureAuthenticated(ctx))
	site.mutex.Lock()
	site.unavailable = true
	site.mutex.Unlock()

	_, err := client.Fetch(ctx, PageRecent)
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, ErrNetwork)
	require.True(t, errors.Is(err, ErrNetwork))
	require.NotEmpty(t, tel.Reports("warning", report_client_fetch_503))
}

func TestNetworkFailure(t *testing.T) {
	_, server := newFakeSite(t)
	client, _ := testClient(t, server, "", nil)
	server.Close()

	err := client.EnsureAuthenticated(context.Background())
	require.ErrorIs(t, err, ErrNetwork)
}

func TestTransportErrorsAreRetried(t *testing.T) {
	site, server := newFakeSite(t)
	client, _ := testClient(t, server, "", func(cfg *Config) {
		cfg.RetryCount = 2
	})
	ctx := context.Background()
	require.NoError(t, client.EnsureAuthenticated(ctx))

	// every request on a fresh connection, so the transport itself never
	// replays a request on a reused one
	server.Config.SetKeepAlivesEnabled(false)
	site.mutex.Lock()
	site.dropNext = 1
	site.mutex.Unlock()

	body, err := client.Fetch(ctx, PagePlayerData)
	require.NoError(t, err)
	require.Contains(t, string(body), PagePlayerData)
	require.Equal(t, 2, site.requestCount(PagePlayerData))
}

func TestTransportErrorsAreBounded(t *testing.T) {
	site, server := newFakeSite(t)
	client, _ := testClient(t, server, "", func(cfg *Config) {
		cfg.RetryCount = 2
	})
	ctx := context.Background()
	require.NoError(t, client.EnsureAuthenticated(ctx))

	// every request on a fresh connection, so the transport itself never
	// replays a request on a reused one
	server.Config.SetKeepAlivesEnabled(false)
	site.mutex.Lock()
	site.dropNext = 10
	site.mutex.Unlock()

	_, err := client.Fetch(ctx, PagePlayerData)
	require.ErrorIs(t, err, ErrNetwork)
	// the first attempt and two retries
	require.Equal(t, 3, site.requestCount(PagePlayerData))
}

func TestFetchDelay(t *testing.T) {
	site, server := newFakeSite(t)
	client, _ := testClient(t, server, "", func(cfg *Config) {
		cfg.FetchDelay = 50 * time.Millisecond
	})
	ctx := context.Background()
	require.NoError(t, client.EnsureAuthenticated(ctx))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(ctx, PageRecent)
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	// two session checks during login and three fetches
	require.Equal(t, 5, site.requestCount(PageRecent))
}

func TestLooksLikeLogin(t *testing.T) {
	cases := []struct {
		url      string
		body     string
		expected bool
	}{
		{url: "https://maimaidx-eng.com/maimai-mobile/record/", body: "<html>records</html>", expected: false},
		{url: "https://maimaidx-eng.com/maimai-mobile/error/", body: "", expected: true},
		{url: "https://lng-tgk-aime-gw.am-all.net/common_auth/login?site_id=maimaidxex", body: "", expected: true},
		{url: "https://lng-tgk-aime-gw.am-all.net/common_auth/", body: "", expected: true},
		{url: "https://maimaidx-eng.com/maimai-mobile/home/", body: `<form id="sidForm">`, expected: true},
		{url: "https://maimaidx-eng.com/maimai-mobile/home/", body: "The connection time has been expired", expected: true},
		{url: "https://maimaidx-eng.com/maimai-mobile/home/", body: "Please login again.", expected: true},
	}

	for _, test := range cases {
		parsed, err := url.Parse(test.url)
		require.NoError(t, err)
		require.Equal(t, test.expected, looksLikeLogin(parsed, []byte(test.body)), test.url)
	}
}

func TestJarRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")
	u, err := url.Parse("https://maimaidx-eng.com/maimai-mobile/")
	require.NoError(t, err)

	jar, err := NewJar()
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{
		{Name: "userId", Value: "42", Path: "/"},
		{Name: "gone", Value: "x", Path: "/", MaxAge: -1},
	})
	require.NoError(t, jar.Save(path))

	restored, err := NewJar()
	require.NoError(t, err)
	require.NoError(t, restored.Load(path))
	require.True(t, restored.Has(u, "userId"))
	require.False(t, restored.Has(u, "gone"))

	missing, err := NewJar()
	require.NoError(t, err)
	require.NoError(t, missing.Load(filepath.Join(t.TempDir(), "none.json")))
}
