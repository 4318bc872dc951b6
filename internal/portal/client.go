// Package portal provides the HR portal client: session-based login,
// planner page fetching and markup parsing.
package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/absence-sync/backend/internal/remote"
)

const (
	loginPath   = "logon_funct.asp"
	plannerPath = "planner.asp"

	// The portal answers a bad login with HTTP 200 and this text in the body.
	badLoginMarker = "The username or password is incorrect."
)

// Client talks to the HR portal over HTTP.
type Client struct {
	baseURL *url.URL
	company string
	timeout time.Duration
}

// NewClient creates a portal client for the given base URL and company code.
func NewClient(baseURL, company string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing portal URL: %w", err)
	}

	return &Client{
		baseURL: u,
		company: company,
		timeout: timeout,
	}, nil
}

// Session is an authenticated portal session. The cookie jar holds the
// portal's session cookie; all fetches for the identity go through it.
type Session struct {
	http      *http.Client
	createdAt time.Time
}

// CreatedAt returns when the session was established.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Login posts the portal login form and returns an authenticated session.
// A non-200 response is a transport failure; a 200 carrying the portal's
// "incorrect" marker is an authentication failure.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	httpClient := &http.Client{
		Jar:     jar,
		Timeout: c.timeout,
		// The portal redirects after login; the session cookie is on the
		// first response, so redirects are not followed.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	form := url.Values{
		"COMPANY":  {c.company},
		"User ID":  {username},
		"Password": {password},
	}

	loginURL := c.baseURL.ResolveReference(&url.URL{Path: loginPath})
	req, err := http.NewRequestWithContext(ctx, "POST", loginURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: portal login: %v", remote.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading login response: %v", remote.ErrTransport, err)
	}

	// A successful login answers with a redirect to the landing page; the
	// rejection page comes back as a plain 200.
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: portal login returned status %d", remote.ErrTransport, resp.StatusCode)
	}
	if strings.Contains(string(body), badLoginMarker) {
		return nil, fmt.Errorf("%w: portal rejected credentials for %s", remote.ErrAuthentication, username)
	}

	return &Session{http: httpClient, createdAt: time.Now()}, nil
}

// FetchMonth retrieves the planner markup for one month. The portal's
// startmonth parameter is zero-based; month here is 1-based.
func (c *Client) FetchMonth(ctx context.Context, session *Session, year, month int) (string, error) {
	plannerURL := c.baseURL.ResolveReference(&url.URL{Path: plannerPath})
	query := url.Values{
		"startyear":    {strconv.Itoa(year)},
		"startmonth":   {strconv.Itoa(month - 1)},
		"monthstoshow": {"1"},
	}
	plannerURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", plannerURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating planner request: %w", err)
	}

	resp, err := session.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetching planner: %v", remote.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: planner returned status %d", remote.ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading planner response: %v", remote.ErrTransport, err)
	}

	return string(body), nil
}
