package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

// HTTP constants
const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 2 << 20
)

// Endpoints are the paths of the remote auth flow, relative to the base URL
type Endpoints struct {
	LoginPage   string
	Credentials string
	Signout     string
}

// Options configures a Session
type Options struct {
	BaseURL   string
	Endpoints Endpoints
	Timeout   time.Duration // per request; 0 means no client-side timeout
	Transport http.RoundTripper
}

// Session is a cookie-persisting HTTP client context for one account's
// login-through-logout sequence. It is not safe for concurrent use.
type Session struct {
	baseURL   string
	endpoints Endpoints
	jar       http.CookieJar
	follow    *http.Client
	noFollow  *http.Client
}

// LoginPage is what the login page GET revealed
type LoginPage struct {
	StatusCode int
	Title      string
	CSRFToken  string
}

// Credentials is the JSON body posted to the credentials callback
type Credentials struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	CSRFToken string `json:"csrfToken,omitempty"`
}

// ProbeResult is the outcome of a GET that does not follow redirects
type ProbeResult struct {
	StatusCode int
	Location   string
}

// NewSession creates a session with an empty cookie jar
func NewSession(opts Options) (*Session, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Session{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		endpoints: opts.Endpoints,
		jar:       jar,
		follow: &http.Client{
			Jar:       jar,
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		noFollow: &http.Client{
			Jar:       jar,
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// URL joins path onto the base URL; absolute URLs are returned unchanged
func (s *Session) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

// LoadLoginPage fetches the login page, following redirects, so the server can set
// its session and CSRF cookies. The page is parsed for a hidden csrfToken input.
func (s *Session) LoadLoginPage(ctx context.Context) (*LoginPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(s.endpoints.LoginPage), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create login page request: %w", err)
	}

	resp, err := s.follow.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "login page request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read login page")
	}

	page := &LoginPage{StatusCode: resp.StatusCode}
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
		if token, ok := doc.Find(`input[name="csrfToken"]`).First().Attr("value"); ok {
			page.CSRFToken = token
		}
	}
	return page, nil
}

// SubmitCredentials posts the credentials as JSON without following redirects and
// returns the response status code
func (s *Session) SubmitCredentials(ctx context.Context, creds Credentials) (int, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL(s.endpoints.Credentials), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create credentials request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := s.noFollow.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "credentials request failed")
	}
	if err := drain(resp); err != nil {
		return 0, errors.Wrap(err, "failed to read credentials response")
	}
	return resp.StatusCode, nil
}

// Probe GETs path without following redirects
func (s *Session) Probe(ctx context.Context, path string) (ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(path), nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := s.noFollow.Do(req)
	if err != nil {
		return ProbeResult{}, errors.Wrapf(err, "probe of %s failed", path)
	}
	if err := drain(resp); err != nil {
		return ProbeResult{}, errors.Wrapf(err, "failed to read probe response for %s", path)
	}
	return ProbeResult{StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}, nil
}

// SignOut posts to the sign-out endpoint without following redirects
func (s *Session) SignOut(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL(s.endpoints.Signout), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create signout request: %w", err)
	}

	resp, err := s.noFollow.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "signout request failed")
	}
	if err := drain(resp); err != nil {
		return 0, errors.Wrap(err, "failed to read signout response")
	}
	return resp.StatusCode, nil
}

// CloseIdleConnections releases pooled connections held by the session's transport
func (s *Session) CloseIdleConnections() {
	s.follow.CloseIdleConnections()
}

func drain(resp *http.Response) error {
	defer resp.Body.Close()
	_, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return err
}
