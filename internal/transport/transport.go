// Package transport issues HTTP calls against the hospital backend and
// normalizes their outcomes. The executor performs a single request —
// bearer injection, content-type policy, nothing else — and Normalize
// classifies whatever came back into a Result that callers can consume
// without try/catch-style handling.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/hims/admin/internal/session"
)

// ---------------------------------------------------------------------------
// Request descriptor
// ---------------------------------------------------------------------------

// MultipartPayload describes a file upload. When present it is mutually
// exclusive with a JSON body: the executor lets the transport layer set the
// multipart boundary and never sends a JSON content-type alongside it.
type MultipartPayload struct {
	FieldName string
	FileName  string
	Content   []byte
	// Fields are additional plain form fields sent with the file.
	Fields map[string]string
}

// Request describes a single HTTP call. URL is absolute and pre-built by
// the caller; the executor does no templating.
type Request struct {
	Method    string
	URL       string
	Body      any
	Headers   map[string]string
	Params    url.Values
	Multipart *MultipartPayload
}

// RawResponse is the unclassified transport result handed to Normalize.
type RawResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// ---------------------------------------------------------------------------
// Executor
// ---------------------------------------------------------------------------

// Executor issues requests with session-aware headers. It does not
// classify failures; that is Normalize's job.
type Executor struct {
	client   *http.Client
	sessions session.Provider
	log      zerolog.Logger
}

// NewExecutor builds an Executor. A nil http.Client gets a 30s-timeout
// default; a nil session provider means every request goes out
// unauthenticated.
func NewExecutor(client *http.Client, sessions session.Provider, log zerolog.Logger) *Executor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Executor{client: client, sessions: sessions, log: log}
}

// Do performs the request. Non-2xx responses return both the RawResponse
// and a *StatusError carrying the status and body; network-level failures
// return a nil response and the underlying error.
func (e *Executor) Do(ctx context.Context, r Request) (*RawResponse, error) {
	switch r.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method %q", r.Method)
	}

	target := r.URL
	if len(r.Params) > 0 {
		sep := "?"
		if u, err := url.Parse(target); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		target += sep + r.Params.Encode()
	}

	// Copy caller headers; the caller's map is never mutated.
	headers := make(map[string]string, len(r.Headers)+2)
	for k, v := range r.Headers {
		headers[k] = v
	}

	var cred *session.Credential
	if e.sessions != nil {
		c, err := e.sessions.Current()
		if err != nil {
			return nil, fmt.Errorf("read session: %w", err)
		}
		cred = c
	}

	var body io.Reader
	switch {
	case r.Multipart != nil:
		// Multipart bodies must not carry a JSON content-type; the
		// multipart writer supplies the boundary. Callers may spell the
		// header in any casing, so drop every key that canonicalizes to it.
		for k := range headers {
			if http.CanonicalHeaderKey(k) == "Content-Type" {
				delete(headers, k)
			}
		}
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for k, v := range r.Multipart.Fields {
			if err := w.WriteField(k, v); err != nil {
				return nil, fmt.Errorf("write form field %q: %w", k, err)
			}
		}
		part, err := w.CreateFormFile(r.Multipart.FieldName, r.Multipart.FileName)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(r.Multipart.Content); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("close multipart writer: %w", err)
		}
		headers["Content-Type"] = w.FormDataContentType()
		body = buf
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		if cred != nil {
			headers["Content-Type"] = "application/json"
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if bearer := cred.BearerValue(); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	e.log.Debug().Str("method", r.Method).Str("url", target).Msg("api request")

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Debug().Err(err).Str("url", target).Msg("api request failed")
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	raw := &RawResponse{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: respBody}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.log.Debug().Int("status", resp.StatusCode).Str("url", target).Msg("api error response")
		return raw, &StatusError{Status: resp.StatusCode, Body: respBody}
	}
	return raw, nil
}

// StatusError is a non-2xx response surfaced as an error. It carries the
// embedded response so Normalize can classify it.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api responded %d", e.Status)
}
