// Package api is a client for the remote text-transformation service: the
// transform call, history listing and mutation, and the health probe.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultTimeout = 30 * time.Second

	MaxTextLength         = 5000
	MaxInstructionsLength = 500
	MaxPageSize           = 100
)

var ErrInvalidRequest = errors.New("invalid request")

// StatusError is returned for non-2xx responses. Message is the service's
// human readable explanation when it sent one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

type Client struct {
	baseURL string
	userID  string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (DefaultTimeout, default
// transport). A nil hc keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the request timeout on a copy of the current client, so a
// shared client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithUserID scopes transform and history calls to an anonymous user.
func WithUserID(id string) Option { return func(c *Client) { c.userID = id } }

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) UserID() string { return c.userID }

// Health reports whether the service answered with a 2xx. The body's status
// may say "unhealthy"; the service is still reachable.
func (c *Client) Health(ctx context.Context) (Health, bool, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &h)
	if err != nil {
		return h, false, err
	}
	return h, true, nil
}

func (c *Client) Transformations(ctx context.Context) (Transformations, error) {
	var out Transformations
	err := c.do(ctx, http.MethodGet, "/transformations", nil, nil, &out)
	return out, err
}

func (c *Client) Transform(ctx context.Context, req TransformRequest) (TransformResponse, error) {
	var out TransformResponse
	if err := validateTransform(req); err != nil {
		return out, err
	}
	if req.UserID == "" {
		req.UserID = c.userID
	}
	err := c.do(ctx, http.MethodPost, "/transform", nil, req, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, q HistoryQuery) (HistoryPage, error) {
	var out HistoryPage
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 50
	}
	if q.Page < 1 {
		return out, fmt.Errorf("%w: page must be >= 1", ErrInvalidRequest)
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return out, fmt.Errorf("%w: page size must be between 1 and %d", ErrInvalidRequest, MaxPageSize)
	}
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("page_size", strconv.Itoa(q.PageSize))
	if q.SavedOnly {
		v.Set("saved_only", "true")
	}
	if c.userID != "" {
		v.Set("user_id", c.userID)
	}
	err := c.do(ctx, http.MethodGet, "/history", v, nil, &out)
	return out, err
}

func (c *Client) SaveHistory(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: history id is required", ErrInvalidRequest)
	}
	return c.do(ctx, http.MethodPost, "/history/"+url.PathEscape(id)+"/save", nil, nil, nil)
}

// DeleteHistory removes the given items and returns how many the service
// deleted.
func (c *Client) DeleteHistory(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: at least one history id is required", ErrInvalidRequest)
	}
	var out deleteResponse
	err := c.do(ctx, http.MethodDelete, "/history", nil, deleteRequest{IDs: ids, UserID: c.userID}, &out)
	return out.Deleted, err
}

func validateTransform(req TransformRequest) error {
	n := utf8.RuneCountInString(req.Text)
	switch {
	case strings.TrimSpace(req.Text) == "":
		return fmt.Errorf("%w: text is empty", ErrInvalidRequest)
	case n > MaxTextLength:
		return fmt.Errorf("%w: text is %d characters, limit is %d", ErrInvalidRequest, n, MaxTextLength)
	case req.TransformationType == "":
		return fmt.Errorf("%w: transformation type is required", ErrInvalidRequest)
	case req.AdditionalInstructions != nil && utf8.RuneCountInString(*req.AdditionalInstructions) > MaxInstructionsLength:
		return fmt.Errorf("%w: additional instructions exceed %d characters", ErrInvalidRequest, MaxInstructionsLength)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// decodeError pulls a message out of {"message": ...} or FastAPI-style
// {"detail": ...} bodies.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	msg := ""
	if json.Unmarshal(raw, &body) == nil {
		msg = body.Message
		if msg == "" && len(body.Detail) > 0 {
			var s string
			if json.Unmarshal(body.Detail, &s) == nil {
				msg = s
			} else {
				msg = string(body.Detail)
			}
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}
