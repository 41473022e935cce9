package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	networkErrorMessage    = "Something went wrong. Please try again later."
	badResponseMessage     = "Unexpected response from server"
	requestEncodingMessage = "Invalid request"
)

// Result is the uniform envelope every call returns. Failures are reported through
// Success and Error, never as a Go error.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// Err converts a failed result into an error for callers that prefer one.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return errors.New("An unknown error occurred")
	}
	return errors.New(r.Error)
}

type Client struct {
	baseURL    string
	authScheme string
	http       *http.Client
}

// New creates a client for the API rooted at baseURL. Endpoints are appended to it
// verbatim, so baseURL is expected to end with a slash.
func New(baseURL, authScheme string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL:    baseURL,
		authScheme: authScheme,
		http:       httpClient,
	}
}

func (c *Client) authorization(token string) string {
	if c.authScheme == "" {
		return token
	}
	return c.authScheme + " " + token
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func call[T any](ctx context.Context, c *Client, method, endpoint, token string, body any) Result[T] {
	var res Result[T]

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			slog.Error("failed to encode request", "endpoint", endpoint, "error", err)
			res.Error = requestEncodingMessage
			return res
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		slog.Error("failed to build request", "endpoint", endpoint, "error", err)
		res.Error = networkErrorMessage
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", c.authorization(token))
	}

	slog.Debug("api request", "method", method, "endpoint", endpoint, "authorization", masked(token))

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("api request failed", "endpoint", endpoint, "error", err)
		res.Error = networkErrorMessage
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("failed to read response", "endpoint", endpoint, "error", err)
		res.Error = networkErrorMessage
		return res
	}

	// A body that is not JSON is treated as empty.
	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		switch {
		case env.Error != "":
			res.Error = env.Error
		case env.Message != "":
			res.Error = env.Message
		default:
			res.Error = fmt.Sprintf("Request failed with status %d", resp.StatusCode)
		}
		return res
	}

	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, &res.Data); err != nil {
			slog.Error("failed to decode response", "endpoint", endpoint, "error", err)
			res.Error = badResponseMessage
			return res
		}
	}

	res.Success = true
	return res
}

func masked(v string) string {
	if v == "" {
		return ""
	}
	if utf8.RuneCountInString(v) <= 2 {
		return "<redacted>"
	}
	first, _ := utf8.DecodeRuneInString(v)
	last, _ := utf8.DecodeLastRuneInString(v)
	return string(first) + "*****" + string(last)
}
