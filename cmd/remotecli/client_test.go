package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/playqueue/internal/api/httpapi"
)

type recorded struct {
	method string
	path   string
	token  string
	body   map[string]any
}

func newFakeServer(t *testing.T, status int, resp any) (*client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, token: r.Header.Get(httpapi.TokenHeader)}
		if r.ContentLength > 0 {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec.body))
		}
		calls = append(calls, rec)

		if resp == nil {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return newClient(srv.URL+"/", "secret", srv.Client()), &calls
}

func TestClient_State(t *testing.T) {
	c, calls := newFakeServer(t, http.StatusOK, httpapi.StateResponse{
		Current: "a",
		State:   "playing",
		Items:   []httpapi.ItemResponse{{ID: "a", Title: "A", Kind: "static", Status: "ready"}},
	})

	s, err := c.state(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", s.Current)
	require.Len(t, *calls, 1)
	assert.Equal(t, recorded{method: http.MethodGet, path: "/state", token: "secret"}, (*calls)[0])

	out := formatState(s)
	assert.Contains(t, out, "State: playing")
	assert.Contains(t, out, ">  1. a A [static] ready")
}

func TestClient_Requests(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *client) error
		method string
		path   string
		body   map[string]any
	}{
		{
			name:   "remove",
			call:   func(c *client) error { return c.removeItem(context.Background(), "a") },
			method: http.MethodDelete,
			path:   "/items/a",
		},
		{
			name:   "clear",
			call:   func(c *client) error { return c.clear(context.Background()) },
			method: http.MethodDelete,
			path:   "/items",
		},
		{
			name:   "current",
			call:   func(c *client) error { return c.setCurrent(context.Background(), "b") },
			method: http.MethodPost,
			path:   "/items/b/current",
		},
		{
			name: "seek command",
			call: func(c *client) error {
				return c.command(context.Background(), "seek", httpapi.CommandRequest{PositionMs: durationMs(90_000_000_000)})
			},
			method: http.MethodPost,
			path:   "/commands/seek",
			body:   map[string]any{"position_ms": float64(90000)},
		},
		{
			name:   "speed",
			call:   func(c *client) error { return c.setSpeed(context.Background(), 1.5) },
			method: http.MethodPost,
			path:   "/speed",
			body:   map[string]any{"value": 1.5},
		},
		{
			name:   "repeat",
			call:   func(c *client) error { return c.setRepeat(context.Background(), "all") },
			method: http.MethodPost,
			path:   "/repeat",
			body:   map[string]any{"mode": "all"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newFakeServer(t, http.StatusNoContent, nil)
			require.NoError(t, tt.call(c))
			require.Len(t, *calls, 1)
			got := (*calls)[0]
			assert.Equal(t, tt.method, got.method)
			assert.Equal(t, tt.path, got.path)
			assert.Equal(t, "secret", got.token)
			if tt.body != nil {
				assert.Equal(t, tt.body, got.body)
			}
		})
	}
}

func TestClient_AddItem(t *testing.T) {
	c, calls := newFakeServer(t, http.StatusCreated, httpapi.AddItemResponse{ID: "new"})

	id, err := c.addItem(context.Background(), httpapi.AddItemRequest{Kind: "static", Title: "A", Current: true})
	require.NoError(t, err)
	assert.Equal(t, "new", id)
	require.Len(t, *calls, 1)
	assert.Equal(t, "static", (*calls)[0].body["kind"])
	assert.Equal(t, true, (*calls)[0].body["current"])
}

func TestClient_ErrorResponse(t *testing.T) {
	c, _ := newFakeServer(t, http.StatusConflict, httpapi.ErrorResponse{Error: "command unavailable"})

	err := c.command(context.Background(), "next", httpapi.CommandRequest{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "409 command unavailable"), err.Error())
}

func TestDurationMs(t *testing.T) {
	assert.Nil(t, durationMs(0))
	require.NotNil(t, durationMs(1500_000_000))
	assert.Equal(t, int64(1500), *durationMs(1500_000_000))
}
