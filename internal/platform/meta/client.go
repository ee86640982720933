// Package meta talks to the Meta Graph API for Facebook and Instagram ad
// accounts.
package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/httpx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

const (
	DefaultAPIVersion    = "v21.0"
	DefaultGraphBaseURL  = "https://graph.facebook.com"
	DefaultDialogBaseURL = "https://www.facebook.com"

	// LongLivedTokenTTL is used when the token endpoint omits expires_in.
	LongLivedTokenTTL int64 = 5184000
)

type Config struct {
	AppID         string `yaml:"app_id"`
	AppSecret     string `yaml:"app_secret"`
	APIVersion    string `yaml:"api_version"`
	GraphBaseURL  string `yaml:"graph_base_url"`
	DialogBaseURL string `yaml:"dialog_base_url"`

	Timeout time.Duration `yaml:"timeout"`
	// MaxAttempts bounds the total number of tries of a read.
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.APIVersion) == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if strings.TrimSpace(c.GraphBaseURL) == "" {
		c.GraphBaseURL = DefaultGraphBaseURL
	}
	if strings.TrimSpace(c.DialogBaseURL) == "" {
		c.DialogBaseURL = DefaultDialogBaseURL
	}
	c.GraphBaseURL = strings.TrimRight(c.GraphBaseURL, "/")
	c.DialogBaseURL = strings.TrimRight(c.DialogBaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 300 * time.Millisecond
	}
	return c
}

// Client is a Graph API client pinned to one API version. It implements
// adprovider.Client.
type Client struct {
	log        *logger.Logger
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg = cfg.withDefaults()
	return &Client{
		log:        log.With("service", "MetaGraphClient"),
		cfg:        cfg,
		baseURL:    cfg.GraphBaseURL + "/" + cfg.APIVersion,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.AppID) != "" && strings.TrimSpace(c.cfg.AppSecret) != ""
}

func (c *Client) APIVersion() string { return c.cfg.APIVersion }

// HTTPError is a non-2xx response that did not carry a Graph error body.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("graph http %d: %s", e.StatusCode, truncate(e.Body, 512))
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

// GraphError is an application error reported by the Graph API, either in a
// 2xx body or on a 4xx response.
type GraphError struct {
	Status      int    `json:"-"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	Code        int    `json:"code"`
	Subcode     int    `json:"error_subcode"`
	UserTitle   string `json:"error_user_title"`
	UserMessage string `json:"error_user_msg"`
	FBTraceID   string `json:"fbtrace_id"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api error (type=%s code=%d): %s", e.Type, e.Code, e.RemoteMessage())
}

func (e *GraphError) RemoteMessage() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "API Error"
	}
	if um := strings.TrimSpace(e.UserMessage); um != "" && um != msg {
		msg += ": " + um
	}
	return msg
}

// IsAuthError reports whether err says the access token is invalid or expired.
func IsAuthError(err error) bool {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code == 190 || (ge.Type == "OAuthException" && ge.Code == 102)
	}
	return false
}

type graphErrorEnvelope struct {
	Error *GraphError `json:"error"`
}

func parseGraphError(raw []byte) *GraphError {
	if len(bytes.TrimSpace(raw)) == 0 || raw[0] != '{' {
		return nil
	}
	var env graphErrorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		return nil
	}
	return env.Error
}

type request struct {
	method      string
	path        string
	query       url.Values
	token       string
	body        []byte
	contentType string
}

func (c *Client) endpoint(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) doOnce(ctx context.Context, r request) (*http.Response, []byte, error) {
	u, err := url.Parse(c.endpoint(r.path))
	if err != nil {
		return nil, nil, err
	}
	q := u.Query()
	for k, vs := range r.query {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if r.token != "" {
		q.Set("access_token", r.token)
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if ge := parseGraphError(raw); ge != nil && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			ge.Status = resp.StatusCode
			return resp, raw, ge
		}
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if ge := parseGraphError(raw); ge != nil {
		ge.Status = resp.StatusCode
		return resp, raw, ge
	}
	return resp, raw, nil
}

// do sends r and decodes the JSON response into out. Only reads are retried;
// a create that timed out may have succeeded remotely.
func (c *Client) do(ctx context.Context, r request, out any) error {
	attempts := 1
	if httpx.IsRetryableMethod(r.method) {
		attempts = c.cfg.MaxAttempts
	}
	backoff := c.cfg.Backoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, r)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("graph decode %s: %w", r.path, uErr)
			}
			return nil
		}
		if attempt >= attempts || !httpx.IsRetryableError(err) {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)
		c.log.Warn("graph request retrying",
			"path", r.path,
			"attempt", attempt,
			"max_attempts", attempts,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
}

func (c *Client) get(ctx context.Context, path, token string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, token: token, query: query}, out)
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("graph encode %s: %w", path, err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		token:       token,
		body:        body,
		contentType: "application/json",
	}, out)
}

// maxPages bounds cursor pagination against a misbehaving next link.
const maxPages = 50

// paginate calls page with every raw response body, following paging.next.
func (c *Client) paginate(ctx context.Context, path, token string, query url.Values, page func(raw []byte) error) error {
	next := path
	for i := 0; next != "" && i < maxPages; i++ {
		var raw json.RawMessage
		if err := c.get(ctx, next, token, query, &raw); err != nil {
			return err
		}
		if err := page(raw); err != nil {
			return err
		}
		var cursor struct {
			Paging struct {
				Next string `json:"next"`
			} `json:"paging"`
		}
		if err := json.Unmarshal(raw, &cursor); err != nil {
			return fmt.Errorf("graph decode paging: %w", err)
		}
		// next links already carry the original query.
		next = cursor.Paging.Next
		query = nil
		if next != "" && !c.graphHost(next) {
			return fmt.Errorf("graph paging: next link leaves %s", c.cfg.GraphBaseURL)
		}
	}
	return nil
}

// graphHost reports whether link points at the configured Graph API host.
// The access token is attached to every page request.
func (c *Client) graphHost(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if !u.IsAbs() {
		return true
	}
	base, err := url.Parse(c.cfg.GraphBaseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host)
}

func unmarshal(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("graph decode: %w", err)
	}
	return nil
}

type idResponse struct {
	ID string `json:"id"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
