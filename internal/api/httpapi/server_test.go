package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/playqueue/internal/app/executor"
	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/app/playback"
	"github.com/osa030/playqueue/internal/app/remote"
	"github.com/osa030/playqueue/internal/app/resolver"
	"github.com/osa030/playqueue/internal/infra/config"
	"github.com/osa030/playqueue/internal/infra/simengine"
)

// manualCaller runs functions inline and then folds everything they posted.
type manualCaller struct {
	exec *executor.Manual
}

func (c manualCaller) Call(_ context.Context, fn func()) error {
	fn()
	c.exec.Drain()
	return nil
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	engine  *simengine.Engine
	caller  manualCaller
}

func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()
	registry, err := resolver.NewRegistryFromConfig(config.DefaultResolvers)
	require.NoError(t, err)

	exec := executor.NewManual()
	engine := simengine.New(simengine.Config{TickInterval: time.Second})
	exporter := metrics.NewExporter()
	player, err := playback.New(playback.Deps{
		Engine:   engine,
		Executor: exec,
		Resolver: registry,
		Spawn:    func(fn func()) { fn() },
		Sink:     exporter,
	}, playback.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(player.Close)

	bridge := remote.ForPlayer(player)
	t.Cleanup(bridge.Close)

	caller := manualCaller{exec: exec}
	srv := New(Deps{Caller: caller, Player: player, Bridge: bridge, Exporter: exporter, Token: token})
	return &testServer{t: t, handler: srv.Routes(), engine: engine, caller: caller}
}

func (s *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) advance(d time.Duration) {
	_ = s.caller.Call(context.Background(), func() { s.engine.Advance(d) })
}

func (s *testServer) addItem(req AddItemRequest) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/items", req)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp AddItemResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func (s *testServer) state() StateResponse {
	s.t.Helper()
	rec := s.do(http.MethodGet, "/state", nil)
	require.Equal(s.t, http.StatusOK, rec.Code)
	var resp StateResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func staticItem(title string) AddItemRequest {
	return AddItemRequest{
		Kind:     resolver.KindStatic,
		Locator:  "https://example.com/" + title + ".m3u8",
		Title:    title,
		Settings: map[string]any{"classification": "on_demand", "duration": "1m"},
	}
}

func TestTokenAuth(t *testing.T) {
	s := newTestServer(t, "secret")

	rec := s.do(http.MethodGet, "/state", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/state", nil, TokenHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/state", nil, TokenHeader, "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "metrics are public")
}

func TestItems(t *testing.T) {
	s := newTestServer(t, "")

	a := s.addItem(staticItem("a"))
	b := s.addItem(staticItem("b"))

	rec := s.do(http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []ItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, a, items[0].ID)
	assert.Equal(t, "ready", items[0].Status)

	st := s.state()
	assert.Equal(t, a, st.Current)
	assert.Equal(t, "playing", st.State)
	assert.True(t, st.CanAdvanceToNext)
	assert.True(t, st.Commands["pause"])
	assert.False(t, st.Commands["play"])

	rec = s.do(http.MethodPost, "/items/"+b+"/current", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, b, s.state().Current)

	rec = s.do(http.MethodPost, "/items", AddItemRequest{Kind: resolver.KindStatic, Before: a, After: b})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/items", AddItemRequest{Kind: resolver.KindStatic, After: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/items/"+a+"/move", MoveItemRequest{Index: 1})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/items/"+a, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, "/items/"+a, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/items", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	st = s.state()
	assert.Empty(t, st.Current)
	assert.Equal(t, "idle", st.State)
}

func TestFailedItemReported(t *testing.T) {
	s := newTestServer(t, "")
	id := s.addItem(AddItemRequest{Kind: "unavailable", Settings: map[string]any{"reason": "geoblocked"}})

	st := s.state()
	assert.Equal(t, "failed", st.State)
	assert.Contains(t, st.Error, "geoblocked")

	rec := s.do(http.MethodPut, "/items/"+id+"/descriptor", staticItem("fixed"))
	require.Equal(t, http.StatusNoContent, rec.Code)
	st = s.state()
	assert.Equal(t, "playing", st.State)
	assert.Empty(t, st.Error)
}

func TestCommands(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodPost, "/commands/eject", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/commands/toggle", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "no current item")

	s.addItem(staticItem("a"))
	s.advance(time.Second)

	rec = s.do(http.MethodGet, "/commands", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var availability map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &availability))
	assert.True(t, availability["seek"])
	assert.False(t, availability["next"])

	rec = s.do(http.MethodPost, "/commands/next", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	position := int64(30_000)
	rec = s.do(http.MethodPost, "/commands/seek", CommandRequest{PositionMs: &position})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	s.advance(time.Second)
	require.NotNil(t, s.state().Time)
	assert.Equal(t, int64(30_000), s.state().Time.PositionMs)

	rec = s.do(http.MethodPost, "/commands/seek", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/commands/pause", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "paused", s.state().State)
}

func TestResume(t *testing.T) {
	s := newTestServer(t, "")
	s.addItem(staticItem("a"))
	b := s.addItem(staticItem("b"))

	position := int64(12_000)
	rec := s.do(http.MethodPost, "/resume", ResumeRequest{ItemID: b, PositionMs: &position})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	s.advance(time.Second)
	st := s.state()
	assert.Equal(t, b, st.Current)
	require.NotNil(t, st.Time)
	assert.Equal(t, int64(12_000), st.Time.PositionMs)

	rec = s.do(http.MethodPost, "/resume", ResumeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpeedAndRepeat(t *testing.T) {
	s := newTestServer(t, "")
	s.addItem(staticItem("a"))

	rec := s.do(http.MethodPost, "/speed", SpeedRequest{Value: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/speed", SpeedRequest{Value: 1.5})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	st := s.state()
	assert.Equal(t, 1.5, st.Speed.Value)
	require.NotNil(t, st.Speed.Max)
	assert.Equal(t, 2.0, *st.Speed.Max)

	rec = s.do(http.MethodPost, "/repeat", RepeatRequest{Mode: "sometimes"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/repeat", RepeatRequest{Mode: "all"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "all", s.state().Repeat)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid speed", err: errors.Wrapf(playback.ErrInvalidSpeed, "%g", -1.0), want: http.StatusBadRequest},
		{name: "missing position", err: remote.ErrMissingPosition, want: http.StatusBadRequest},
		{name: "not seekable", err: playback.ErrNotSeekable, want: http.StatusConflict},
		{name: "unknown command", err: remote.ErrUnknownCommand, want: http.StatusNotFound},
		{name: "stopped executor", err: executor.ErrStopped, want: http.StatusServiceUnavailable},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, "")
	s.addItem(staticItem("a"))

	rec := s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "playqueue_queue_items 1")
	assert.Contains(t, body, `playqueue_item_events_total{kind="engine_ready"} 1`)
}
