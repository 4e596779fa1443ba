package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenSource yields the bearer credential attached to authenticated
// requests. Passing it explicitly here (instead of mutating a shared client
// header) keeps credential ownership with the session layer; the client only
// ever reads.
type TokenSource interface {
	AccessToken() string
}

// Client is a thin wrapper over the upstream call-center REST API. One
// method per upstream operation, no retry, no caching; pagination and
// optimistic updates are the caller's concern.
type Client struct {
	http    *http.Client
	baseURL string
	tokens  TokenSource
}

const defaultTimeout = 15 * time.Second

// NewClient builds a client for the API rooted at baseURL. A nil httpClient
// gets a default with a conservative timeout. tokens may be nil only if no
// authenticated method is ever called.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
	}
}

// ListParams selects one page of the call list. From/To, when set, are
// forwarded upstream as an inclusive created_at range.
type ListParams struct {
	Offset int
	Limit  int
	From   *time.Time
	To     *time.Time
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(p.Offset))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.From != nil {
		q.Set("from", p.From.UTC().Format(time.RFC3339))
	}
	if p.To != nil {
		q.Set("to", p.To.UTC().Format(time.RFC3339))
	}
	return q
}

/* ===================== AUTH ===================== */

func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	body := map[string]string{"username": username, "password": password}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out, false); err != nil {
		return Session{}, err
	}
	return out, nil
}

func (c *Client) RefreshToken(ctx context.Context, token string) (Session, error) {
	body := map[string]string{"token": token}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/auth/refresh-token", nil, body, &out, false); err != nil {
		return Session{}, err
	}
	return out, nil
}

/* ===================== CALLS ===================== */

func (c *Client) ListCalls(ctx context.Context, p ListParams) (CallPage, error) {
	var out CallPage
	if err := c.do(ctx, http.MethodGet, "/calls", p.query(), nil, &out, true); err != nil {
		return CallPage{}, err
	}
	return out, nil
}

func (c *Client) GetCall(ctx context.Context, id string) (Call, error) {
	var out Call
	if err := c.do(ctx, http.MethodGet, "/calls/"+url.PathEscape(id), nil, nil, &out, true); err != nil {
		return Call{}, err
	}
	return out, nil
}

// ToggleArchive flips the archived flag server-side. The response body is
// not trusted; callers apply their own optimistic local flip on success.
func (c *Client) ToggleArchive(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/calls/"+url.PathEscape(id)+"/archive", nil, nil, nil, true)
}

// AddNote appends a note and returns the authoritative updated record, which
// callers should adopt wholesale in place of their cached copy.
func (c *Client) AddNote(ctx context.Context, id, content string) (Call, error) {
	body := map[string]string{"content": content}
	var out Call
	if err := c.do(ctx, http.MethodPost, "/calls/"+url.PathEscape(id)+"/note", nil, body, &out, true); err != nil {
		return Call{}, err
	}
	return out, nil
}

/* ===================== TRANSPORT ===================== */

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, authed bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("backend: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed && c.tokens != nil {
		if tok := c.tokens.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}
