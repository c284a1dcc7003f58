// Package remote drives another daemon's capture RPC surface, so one
// machine can coordinate a recorder that runs on a different one.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tapedeck/tapedeck/internal/capture"
)

// Client implements capture.Backend over HTTP against the /rpc/v1 routes.
// The http.Client carries no timeout: a foreground Start holds its request
// open for the whole recording. The short RPCs are bounded per call by
// opTimeout instead.
type Client struct {
	base      string
	hc        *http.Client
	opTimeout time.Duration
}

// New returns a client for the daemon at base, e.g. "http://10.0.0.5:8313".
func New(base string) *Client {
	return &Client{
		base:      strings.TrimRight(base, "/"),
		hc:        &http.Client{},
		opTimeout: 30 * time.Second,
	}
}

// Start asks the remote engine to begin capturing. The request runs on the
// caller's context: a foreground start stays open until the recording ends.
func (c *Client) Start(ctx context.Context, opts capture.StartOptions) (capture.StartResult, error) {
	var res capture.StartResult
	err := c.do(ctx, http.MethodPost, "/rpc/v1/start", opts, &res)
	return res, err
}

// Stop asks the remote engine to end the tracked capture.
func (c *Client) Stop(ctx context.Context) (capture.StopResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	var res capture.StopResult
	err := c.do(ctx, http.MethodPost, "/rpc/v1/stop", nil, &res)
	return res, err
}

// Status probes the remote engine.
func (c *Client) Status(ctx context.Context) (capture.StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	var res capture.StatusResult
	err := c.do(ctx, http.MethodGet, "/rpc/v1/status", nil, &res)
	return res, err
}

// ListDevices reports the remote machine's capture devices.
func (c *Client) ListDevices(ctx context.Context) ([]capture.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	var devs []capture.Device
	err := c.do(ctx, http.MethodGet, "/rpc/v1/devices", nil, &devs)
	return devs, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote: %s %s: %s", method, path, apiError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

// apiError pulls the error message out of a non-200 response body, falling
// back to the HTTP status line.
func apiError(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return resp.Status
}
