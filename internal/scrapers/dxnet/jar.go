package dxnet

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type persistedCookie struct {
	Url      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

type cookieId struct {
	host   string
	name   string
	path   string
	domain string
}

// Jar is an http.CookieJar that can be saved to and restored from a JSON file.
// Cookie values are never logged.
type Jar struct {
	mutex sync.Mutex
	inner *cookiejar.Jar
	seen  map[cookieId]persistedCookie
}

func NewJar() (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Jar{
		inner: inner,
		seen:  map[cookieId]persistedCookie{},
	}, nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	j.inner.SetCookies(u, cookies)
	origin := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	for _, c := range cookies {
		id := cookieId{host: u.Host, name: c.Name, path: c.Path, domain: c.Domain}
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(j.seen, id)
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.seen[id] = persistedCookie{
			Url:      origin.String(),
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

// Has tells if a cookie with the given name would be sent to u.
func (j *Jar) Has(u *url.URL, name string) bool {
	for _, c := range j.inner.Cookies(u) {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

// Load restores cookies saved by Save, a missing file leaves the jar empty.
func (j *Jar) Load(path string) error {
	buff, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cookie jar: %w", err)
	}

	var saved []persistedCookie
	err = json.Unmarshal(buff, &saved)
	if err != nil {
		return fmt.Errorf("load cookie jar: %w", err)
	}

	now := time.Now()
	for _, c := range saved {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		u, err := url.Parse(c.Url)
		if err != nil {
			continue
		}
		j.SetCookies(u, []*http.Cookie{{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}})
	}
	return nil
}

// Save overwrites the file at path with the current cookies, readable by the
// owner only.
func (j *Jar) Save(path string) error {
	j.mutex.Lock()
	saved := make([]persistedCookie, 0, len(j.seen))
	for _, c := range j.seen {
		saved = append(saved, c)
	}
	j.mutex.Unlock()

	buff, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("save cookie jar: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		err = os.MkdirAll(dir, 0700)
		if err != nil {
			return fmt.Errorf("save cookie jar: %w", err)
		}
	}

	temp := path + ".tmp"
	err = os.WriteFile(temp, buff, 0600)
	if err != nil {
		return fmt.Errorf("save cookie jar: %w", err)
	}
	err = os.Rename(temp, path)
	if err != nil {
		return fmt.Errorf("save cookie jar: %w", err)
	}
	return nil
}
