package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/playqueue/internal/api/httpapi"
)

// client calls the playqueue HTTP API.
type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient(base, token string, hc *http.Client) *client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &client{base: strings.TrimRight(base, "/"), token: token, http: hc}
}

// do sends a JSON request and decodes a JSON response into out when out is
// not nil. Non-2xx responses are returned as errors carrying the server
// message.
func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(httpapi.TokenHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e httpapi.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return errors.Newf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
		}
		return errors.Newf("%s %s: %d", method, path, resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}

func (c *client) state(ctx context.Context) (httpapi.StateResponse, error) {
	var s httpapi.StateResponse
	err := c.do(ctx, http.MethodGet, "/state", nil, &s)
	return s, err
}

func (c *client) items(ctx context.Context) ([]httpapi.ItemResponse, error) {
	var items []httpapi.ItemResponse
	err := c.do(ctx, http.MethodGet, "/items", nil, &items)
	return items, err
}

func (c *client) addItem(ctx context.Context, req httpapi.AddItemRequest) (string, error) {
	var resp httpapi.AddItemResponse
	err := c.do(ctx, http.MethodPost, "/items", req, &resp)
	return resp.ID, err
}

func (c *client) removeItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/items/"+id, nil, nil)
}

func (c *client) clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/items", nil, nil)
}

func (c *client) setCurrent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/items/"+id+"/current", nil, nil)
}

func (c *client) command(ctx context.Context, name string, req httpapi.CommandRequest) error {
	return c.do(ctx, http.MethodPost, "/commands/"+name, req, nil)
}

func (c *client) commands(ctx context.Context) (map[string]bool, error) {
	var resp map[string]bool
	err := c.do(ctx, http.MethodGet, "/commands", nil, &resp)
	return resp, err
}

func (c *client) resume(ctx context.Context, req httpapi.ResumeRequest) error {
	return c.do(ctx, http.MethodPost, "/resume", req, nil)
}

func (c *client) setSpeed(ctx context.Context, v float64) error {
	return c.do(ctx, http.MethodPost, "/speed", httpapi.SpeedRequest{Value: v}, nil)
}

func (c *client) setRepeat(ctx context.Context, mode string) error {
	return c.do(ctx, http.MethodPost, "/repeat", httpapi.RepeatRequest{Mode: mode}, nil)
}
