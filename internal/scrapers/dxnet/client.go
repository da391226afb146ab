// Package dxnet keeps an authenticated session with maimai DX NET and fetches
// its pages, callers never see cookies or the login flow.
package dxnet

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"maisync/internal/components/assert"
	"maisync/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_client_load_jar  = "client.load-jar"
	report_client_save_jar  = "client.save-jar"
	report_client_login     = "client.login"
	report_client_session   = "client.session-check"
	report_client_fetch     = "client.fetch"
	report_client_relogin   = "client.relogin"
	report_client_fetch_503 = "client.fetch-503"
)

var tracer = otel.Tracer("maisync/dxnet")

type Config struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl  string
	Sid      string
	Password string
	// CookiePath is where the jar is persisted, empty disables persistence.
	CookiePath string
	// SessionCookie must be present for the session to count as logged in,
	// empty skips the check.
	SessionCookie string
	// FetchDelay is the minimum spacing between two requests.
	FetchDelay time.Duration
	Timeout    time.Duration
	// RetryCount bounds the retries of a failed request, zero means the
	// default and a negative count disables retries.
	RetryCount int
	// RetryWait is the first backoff between retries, defaults to 2s.
	RetryWait time.Duration
	// CloudflareBypass wraps the transport with browser-like TLS and headers.
	CloudflareBypass bool
	// DumpDir, when set, receives a redacted copy of every exchange.
	DumpDir string
}

const (
	DefaultSessionCookie = "userId"
	defaultFetchDelay    = time.Second
	defaultTimeout       = 30 * time.Second
	defaultRetryCount    = 2
	defaultRetryWait     = 2 * time.Second
	userAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// Client is an authenticated handle to the site. It is not safe to use from
// more than one sync cycle at a time.
type Client struct {
	cfg     Config
	baseUrl *url.URL
	http    *resty.Client
	jar     *Jar
	tel     telemetry.API

	loadOnce sync.Once
}

func NewClient(cfg Config, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "telemetry")
	assert.NotEmptyStr(cfg.Sid, "sid")
	assert.NotEmptyStr(cfg.Password, "password")

	tel = telemetry.NewScopedAPI("dxnet", tel)

	if cfg.BaseUrl == "" {
		cfg.BaseUrl = DefaultBaseUrl
	}
	if cfg.FetchDelay <= 0 {
		cfg.FetchDelay = defaultFetchDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	switch {
	case cfg.RetryCount == 0:
		cfg.RetryCount = defaultRetryCount
	case cfg.RetryCount < 0:
		cfg.RetryCount = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = defaultRetryWait
	}

	baseUrl, err := url.Parse(strings.TrimSuffix(cfg.BaseUrl, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := NewJar()
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl.String())
	httpClient.SetCookieJar(jar)
	if cfg.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", userAgent)
	// login goes through the aime auth host and back
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	httpClient.SetTimeout(cfg.Timeout)
	httpClient.SetRetryCount(cfg.RetryCount)
	httpClient.SetRetryWaitTime(cfg.RetryWait)
	httpClient.SetRetryMaxWaitTime(5 * cfg.RetryWait)
	// a retry condition replaces resty's default of retrying transport errors
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		if res == nil {
			return false
		}
		switch res.StatusCode() {
		case http.StatusBadGateway, http.StatusGatewayTimeout:
			return true
		}
		return false
	})

	// one request per fetch delay, burst of 1 keeps consecutive fetches spaced
	rateLimiter := rate.NewLimiter(rate.Every(cfg.FetchDelay), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	if cfg.DumpDir != "" {
		out, err := telemetry.NewFilesystemOutput(cfg.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("http dump: %w", err)
		}
		telemetry.DumpResty(httpClient, out)
	}

	return &Client{
		cfg:     cfg,
		baseUrl: baseUrl,
		http:    httpClient,
		jar:     jar,
		tel:     tel,
	}, nil
}

func (c *Client) loadJar() {
	c.loadOnce.Do(func() {
		if c.cfg.CookiePath == "" {
			return
		}
		err := c.jar.Load(c.cfg.CookiePath)
		if err != nil {
			// a broken jar file only costs a login
			c.tel.ReportWarning(report_client_load_jar, err)
		}
	})
}

func (c *Client) saveJar() {
	if c.cfg.CookiePath == "" {
		return
	}
	err := c.jar.Save(c.cfg.CookiePath)
	if err != nil {
		c.tel.ReportWarning(report_client_save_jar, err)
	}
}

type page struct {
	final  *url.URL
	status int
	body   []byte
}

func (c *Client) get(ctx context.Context, endpoint string) (page, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return page{}, fmt.Errorf("%w: GET %s: %s", ErrNetwork, endpoint, err.Error())
	}
	return responsePage(res), nil
}

func responsePage(res *resty.Response) page {
	p := page{
		status: res.StatusCode(),
		body:   res.Body(),
	}
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		p.final = res.RawResponse.Request.URL
	}
	return p
}

func checkStatus(endpoint string, p page) error {
	switch {
	case p.status == http.StatusServiceUnavailable:
		return fmt.Errorf("GET %s: %w", endpoint, ErrUnavailable)
	case p.status >= 400:
		return fmt.Errorf("%w: GET %s: status %d", ErrNetwork, endpoint, p.status)
	}
	return nil
}

func (c *Client) authenticated(p page) bool {
	if looksLikeLogin(p.final, p.body) {
		return false
	}
	if c.cfg.SessionCookie != "" && !c.jar.Has(c.baseUrl, c.cfg.SessionCookie) {
		return false
	}
	return true
}

// checkSession fetches the cheapest protected page and tells if the session is
// still valid.
func (c *Client) checkSession(ctx context.Context) (bool, error) {
	p, err := c.get(ctx, PageRecent)
	if err != nil {
		return false, err
	}
	if looksLikeLogin(p.final, p.body) {
		return false, nil
	}
	err = checkStatus(PageRecent, p)
	if err != nil {
		return false, err
	}
	return c.authenticated(p), nil
}

// EnsureAuthenticated restores the persisted session and logs in again if the
// site no longer accepts it.
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "EnsureAuthenticated")
	defer span.End()

	c.loadJar()

	ok, err := c.checkSession(ctx)
	if err != nil {
		c.tel.ReportWarning(report_client_session, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if ok {
		c.saveJar()
		return nil
	}

	err = c.login(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// login runs the sid/password form flow. The jar is left as is on failure.
func (c *Client) login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()

	loginError := func(err error) error {
		c.tel.ReportBroken(report_client_login, err)
		return err
	}

	c.tel.ReportDebug("login: requesting login form")
	form, err := c.get(ctx, "/")
	if err != nil {
		return loginError(err)
	}
	if form.status == http.StatusServiceUnavailable {
		return loginError(fmt.Errorf("login form: %w", ErrUnavailable))
	}

	action, fields, err := loginForm(form)
	if err != nil {
		return loginError(fmt.Errorf("%w: %s", ErrAuthentication, err.Error()))
	}
	fields["sid"] = c.cfg.Sid
	fields["password"] = c.cfg.Password
	fields["retention"] = "1"

	referer := ""
	if form.final != nil {
		referer = form.final.String()
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("referer", referer).
		SetFormData(fields).
		Post(action)
	if err != nil {
		return loginError(fmt.Errorf("%w: login request: %s", ErrNetwork, err.Error()))
	}
	submitted := responsePage(res)
	if submitted.status == http.StatusServiceUnavailable {
		return loginError(fmt.Errorf("login: %w", ErrUnavailable))
	}
	if bytes.Contains(submitted.body, []byte(`id="sidForm"`)) {
		return loginError(fmt.Errorf("%w: credentials rejected", ErrAuthentication))
	}

	ok, err := c.checkSession(ctx)
	if err != nil {
		return loginError(err)
	}
	if !ok {
		return loginError(fmt.Errorf("%w: still logged out after login", ErrAuthentication))
	}

	span.SetAttributes(attribute.Bool("dxnet.logged_in", true))
	c.saveJar()
	return nil
}

// loginForm finds the sid login form and returns its absolute action url
// together with its hidden inputs.
func loginForm(p page) (string, map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(p.body))
	if err != nil {
		return "", nil, fmt.Errorf("parse login page: %w", err)
	}

	form := doc.Find("form#sidForm").First()
	if form.Length() == 0 {
		form = doc.Find(`input[name="sid"]`).First().Closest("form")
	}
	if form.Length() == 0 {
		return "", nil, fmt.Errorf("could not find login form")
	}

	fields := map[string]string{}
	form.Find(`input[type="hidden"]`).Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		fields[name] = input.AttrOr("value", "")
	})

	action := form.AttrOr("action", "")
	if action == "" {
		action = "/common_auth/login/sid/"
	}
	actionUrl, err := url.Parse(action)
	if err != nil {
		return "", nil, fmt.Errorf("parse login form action: %w", err)
	}
	if p.final != nil {
		actionUrl = p.final.ResolveReference(actionUrl)
	}
	return actionUrl.String(), fields, nil
}

// Fetch GETs an authenticated page, logging in again once if the session
// turned out to be expired.
func (c *Client) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("dxnet.endpoint", endpoint))

	c.loadJar()

	fail := func(err error) ([]byte, error) {
		c.tel.ReportWarning(report_client_fetch, endpoint, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	p, err := c.get(ctx, endpoint)
	if err != nil {
		return fail(err)
	}
	if !looksLikeLogin(p.final, p.body) {
		err = checkStatus(endpoint, p)
		if err != nil {
			if p.status == http.StatusServiceUnavailable {
				c.tel.ReportWarning(report_client_fetch_503, endpoint)
			}
			return fail(err)
		}
		c.saveJar()
		return p.body, nil
	}

	c.tel.ReportDebug(report_client_relogin, endpoint)
	err = c.login(ctx)
	if err != nil {
		return fail(err)
	}

	p, err = c.get(ctx, endpoint)
	if err != nil {
		return fail(err)
	}
	if looksLikeLogin(p.final, p.body) {
		return fail(fmt.Errorf("GET %s: %w", endpoint, ErrSessionExpired))
	}
	err = checkStatus(endpoint, p)
	if err != nil {
		return fail(err)
	}
	c.saveJar()
	return p.body, nil
}
