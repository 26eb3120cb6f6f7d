// Package api wraps the Kudakan backend REST API under /api/v1. It attaches
// bearer tokens, normalizes the loosely shaped responses into the models
// package and maps failures onto a small error taxonomy callers can switch on.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kudakan-telegram/config"
)

// ErrSessionExpired is returned on HTTP 401. Callers must treat it as
// "log the user out and show the login screen".
var ErrSessionExpired = errors.New("session expired")

// ValidationError carries the server's 422 detail for display; the form
// stays open for correction.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return "validation failed"
	}
	return "validation failed: " + e.Detail
}

// ConnectivityError wraps a transport-level failure (DNS, refused, timeout).
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string { return "connectivity: " + e.Err.Error() }
func (e *ConnectivityError) Unwrap() error { return e.Err }

// StatusError is any other non-2xx response.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string { return fmt.Sprintf("request failed: HTTP %d", e.Status) }

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(cfg config.APIConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// request issues one call and decodes the JSON response into out (skipped
// when out is nil or the body is empty, e.g. DELETE).
func (c *Client) request(ctx context.Context, method, path, token string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectivityError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrSessionExpired
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return &ValidationError{Detail: validationDetail(raw)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Status: resp.StatusCode}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// upload posts a multipart form (menu image creation). Fields are sent as
// plain form values, the file under the "image" field.
func (c *Client) upload(ctx context.Context, path, token string, fields map[string]string, fileField, filename string, file io.Reader, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	fw, err := mw.CreateFormFile(fileField, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectivityError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrSessionExpired
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return &ValidationError{Detail: validationDetail(raw)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Status: resp.StatusCode}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// validationDetail extracts the "detail" field of a 422 body. The backend
// sends either a string or a list of {msg} objects.
func validationDetail(raw []byte) string {
	var withString struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &withString); err == nil && withString.Detail != "" {
		return withString.Detail
	}
	var withList struct {
		Detail []struct {
			Msg string `json:"msg"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(raw, &withList); err == nil && len(withList.Detail) > 0 {
		msgs := make([]string, 0, len(withList.Detail))
		for _, d := range withList.Detail {
			if d.Msg != "" {
				msgs = append(msgs, d.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
