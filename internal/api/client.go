// Package api is the typed client for the timedeck REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hgdelgado/timedeck/internal/session"
)

var (
	// ErrUnauthorized is returned for any 401; callers route back to login.
	ErrUnauthorized = errors.New("api: unauthorized")

	// ErrCanceled marks a request abandoned by its own context. It is a
	// non-error for callers: a superseded fetch, not a failure.
	ErrCanceled = errors.New("api: request canceled")

	// ErrMalformedList is returned when a list endpoint yields neither a
	// bare array nor an {items, totalCount} envelope.
	ErrMalformedList = errors.New("api: malformed list response")
)

// Unauthorized reports whether err came from a 401 response.
func Unauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

type Client struct {
	baseURL string
	http    *http.Client
	sess    *session.Session
}

// NewClient builds a client against baseURL. sess may be nil for
// unauthenticated calls (login, register); when set, its bearer token is
// attached to every request.
func NewClient(baseURL string, timeout time.Duration, sess *session.Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		sess:    sess,
	}
}

// SetSession swaps the session used for bearer auth. The login screen uses
// this after a successful login without rebuilding the client.
func (c *Client) SetSession(sess *session.Session) {
	c.sess = sess
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.sess != nil && c.sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.sess.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return ErrCanceled
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("api: %s %s: %s", method, path, readErrorBody(resp))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readErrorBody(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return resp.Status
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// listEnvelope is the paginated response shape.
type listEnvelope[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// getList fetches a list endpoint and normalizes the two response shapes,
// a bare array or an {items, totalCount} envelope, into one form. For the
// bare-array shape totalCount is the array length.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, int, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, 0, err
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, 0, ErrMalformedList
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, ErrMalformedList
		}
		return items, len(items), nil
	case '{':
		var env listEnvelope[T]
		if err := json.Unmarshal(trimmed, &env); err != nil || env.Items == nil {
			return nil, 0, ErrMalformedList
		}
		return env.Items, env.TotalCount, nil
	}
	return nil, 0, ErrMalformedList
}

func pageQuery(page, pageSize int) string {
	return fmt.Sprintf("?page=%d&pageSize=%d", page, pageSize)
}
