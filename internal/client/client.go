// ABOUTME: HTTP client for the LMS backend API
// ABOUTME: Carries session cookies and org scope, renewing an expired session once per 401

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRenewTimeout   = 15 * time.Second

	// OrgHeader scopes a request to one organization.
	OrgHeader = "X-Org-ID"
)

// Options configures a Client. Zero values pick sensible defaults.
type Options struct {
	BaseURL        string
	OrgID          string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	RenewTimeout   time.Duration

	// OnSessionExpired runs once per failed renewal, after the session is torn down.
	OnSessionExpired func()
}

// Client is the API client for the LMS backend. One Client owns one Session;
// share the Client rather than the Session.
type Client struct {
	baseURL        string
	orgID          string
	httpClient     *http.Client
	session        *Session
	requestTimeout time.Duration
	renewTimeout   time.Duration
	onExpired      func()
	sfGroup        singleflight.Group
}

// Request describes one backend call. Path is relative to the base URL
// unless it is an absolute http(s) URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    Body
	Header  http.Header
	Timeout time.Duration // overrides the client default when positive
}

// New creates a new API client
func New(opts Options) *Client {
	session := NewSession()

	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		httpClient = &copied
	}
	httpClient.Jar = session

	c := &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		orgID:          opts.OrgID,
		httpClient:     httpClient,
		session:        session,
		requestTimeout: opts.RequestTimeout,
		renewTimeout:   opts.RenewTimeout,
		onExpired:      opts.OnSessionExpired,
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = defaultRequestTimeout
	}
	if c.renewTimeout <= 0 {
		c.renewTimeout = defaultRenewTimeout
	}
	return c
}

// BaseURL returns the API root every relative path is resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// OrgID returns the organization sent with every call.
func (c *Client) OrgID() string { return c.orgID }

// Session exposes the credential for inspection.
func (c *Client) Session() *Session { return c.session }

// Do performs the request and decodes a JSON response into out.
// out may be nil; an empty or 204 response leaves it untouched.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	body, err := c.Call(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || body == nil {
		return nil
	}
	if err := decodeJSON(body, out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// Call performs the request and returns the raw response body, or nil for
// an empty or 204 response. A 401 outside /auth/ triggers at most one
// renewal and one replay; the replay's outcome is final.
func (c *Client) Call(ctx context.Context, req *Request) ([]byte, error) {
	target, err := c.resolve(req)
	if err != nil {
		return nil, err
	}

	generation := c.session.Generation()
	resp, err := c.send(ctx, req, target)
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusUnauthorized && !isAuthPath(target) {
		slog.Debug("Session rejected, renewing", "method", req.Method, "path", target.Path)
		// A false return means someone else renewed while this request was
		// in flight; the replay carries their credential.
		if c.session.markExpired(generation) {
			if err := c.renew(ctx, generation); err != nil {
				return nil, err
			}
		}

		resp, err = c.send(ctx, req, target)
		if err != nil {
			return nil, err
		}
	}

	return resp.result()
}

// renew collapses concurrent renewals into one refresh call. The refresh
// runs detached from ctx so one caller giving up does not fail the others.
// generation is the credential the caller saw rejected; a caller that only
// reaches the group after that credential was replaced triggers no refresh.
func (c *Client) renew(ctx context.Context, generation uint64) error {
	ch := c.sfGroup.DoChan("refresh", func() (interface{}, error) {
		if !c.session.beginRenewal(generation) {
			return nil, nil
		}

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.renewTimeout)
		defer cancel()

		if err := c.refresh(rctx); err != nil {
			slog.Warn("Session renewal failed", "error", err)
			c.session.Teardown()
			if c.onExpired != nil {
				c.onExpired()
			}
			return nil, err
		}

		c.session.renewed()
		slog.Debug("Session renewed")
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for session renewal: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return fmt.Errorf("%w: %w", ErrSessionExpired, res.Err)
		}
		return nil
	}
}

func (c *Client) refresh(ctx context.Context) error {
	body, _ := JSON(struct{}{})
	req := &Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Query:  url.Values{"use_cookies": {"true"}},
		Body:   body,
	}
	target, err := c.resolve(req)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, req, target)
	if err != nil {
		return err
	}
	_, err = resp.result()
	return err
}

type response struct {
	status int
	body   []byte
}

func (r *response) result() ([]byte, error) {
	if r.status < 200 || r.status > 299 {
		return nil, newBackendError(r.status, r.body)
	}
	if r.status == http.StatusNoContent || len(r.body) == 0 {
		return nil, nil
	}
	return r.body, nil
}

// send performs a single attempt.
func (c *Client) send(ctx context.Context, req *Request, target *url.URL) (*response, error) {
	timeout := c.requestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.ReadCloser
	if req.Body != nil {
		rc, err := req.Body.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open request body: %w", err)
		}
		body = rc
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		if body != nil {
			body.Close()
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", req.Body.ContentType())
		if sized, ok := req.Body.(contentLength); ok {
			httpReq.ContentLength = sized.Len()
		}
	}
	if c.orgID != "" {
		httpReq.Header.Set(OrgHeader, c.orgID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, fmt.Errorf("request to %s timed out: %w", target.Path, ctxErr)
			}
			return nil, fmt.Errorf("request to %s canceled: %w", target.Path, ctxErr)
		}
		return nil, &UnreachableError{URL: redact(target), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("reading response from %s: %w", target.Path, ctxErr)
		}
		return nil, &UnreachableError{URL: redact(target), Err: err}
	}

	return &response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) resolve(req *Request) (*url.URL, error) {
	raw := req.Path
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = c.baseURL + "/" + strings.TrimLeft(raw, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", raw, err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for key, values := range req.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// isAuthPath reports whether a 401 from target means bad credentials
// rather than an expired session.
func isAuthPath(target *url.URL) bool {
	return strings.Contains(target.Path+"/", "/auth/")
}

// redact drops the query string, which may carry presigned credentials.
func redact(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	return c.String()
}
