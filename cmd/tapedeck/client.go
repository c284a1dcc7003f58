package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tapedeck/tapedeck/internal/capture"
	"github.com/tapedeck/tapedeck/internal/session"
)

const defaultHost = "http://127.0.0.1:8313"

// apiClient talks to the daemon's presentation API.
type apiClient struct {
	base string
	hc   *http.Client
}

// newAPIClient returns a client for the daemon at base. The client carries
// no timeout because a foreground start holds its request open for the
// whole recording.
func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{},
	}
}

// apiError carries the HTTP status so commands can special-case specific
// responses, like the 501 from summarize.
type apiError struct {
	code int
	msg  string
}

func (e *apiError) Error() string { return e.msg }

// statusInfo is the daemon's combined coordinator and recorder view.
type statusInfo struct {
	session.Summary
	Backend      *capture.StatusResult `json:"backend,omitempty"`
	BackendError string                `json:"backend_error,omitempty"`
}

func (c *apiClient) status(ctx context.Context) (statusInfo, error) {
	var info statusInfo
	err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &info)
	return info, err
}

func (c *apiClient) startRecording(ctx context.Context, opts capture.StartOptions) (session.Record, error) {
	var rec session.Record
	err := c.do(ctx, http.MethodPost, "/api/v1/record/start", opts, &rec)
	return rec, err
}

func (c *apiClient) stopRecording(ctx context.Context) (session.Record, error) {
	var rec session.Record
	err := c.do(ctx, http.MethodPost, "/api/v1/record/stop", nil, &rec)
	return rec, err
}

func (c *apiClient) sessions(ctx context.Context) ([]session.Record, error) {
	var recs []session.Record
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions", nil, &recs)
	return recs, err
}

func (c *apiClient) latest(ctx context.Context) (session.Record, error) {
	var rec session.Record
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/latest", nil, &rec)
	return rec, err
}

func (c *apiClient) devices(ctx context.Context) ([]capture.Device, error) {
	var devs []capture.Device
	err := c.do(ctx, http.MethodGet, "/api/v1/devices", nil, &devs)
	return devs, err
}

func (c *apiClient) summarize(ctx context.Context, id string) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/summarize/"+id, nil, &resp)
	return resp.Summary, err
}

// events opens the daemon's event stream and invokes fn for every event
// until ctx is cancelled or the stream ends.
func (c *apiClient) events(ctx context.Context, fn func(event string, data []byte)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/events", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connect to %s (is tapedeck serve running?): %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &apiError{code: resp.StatusCode, msg: readAPIError(resp)}
	}

	scanner := bufio.NewScanner(resp.Body)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			fn(event, []byte(strings.TrimPrefix(line, "data: ")))
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("connect to %s (is tapedeck serve running?): %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &apiError{code: resp.StatusCode, msg: readAPIError(resp)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readAPIError extracts the error message from a failed response body.
func readAPIError(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, msg)
}
