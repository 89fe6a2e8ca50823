// Package httpapi exposes the player over HTTP with JSON bodies.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/app/executor"
	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/app/playback"
	"github.com/osa030/playqueue/internal/app/queue"
	"github.com/osa030/playqueue/internal/app/remote"
	"github.com/osa030/playqueue/internal/app/resume"
	"github.com/osa030/playqueue/internal/domain/item"
)

// Caller runs a function on the player's executor and waits for it.
type Caller interface {
	Call(ctx context.Context, fn func()) error
}

// Deps holds the collaborators of the server.
type Deps struct {
	Caller   Caller
	Player   *playback.Player
	Bridge   *remote.Bridge
	Exporter *metrics.Exporter // Optional; /metrics is not served without it
	Token    string            // Optional API token
}

// Server serves the HTTP API.
type Server struct {
	deps     Deps
	validate *validator.Validate
}

// New creates a new Server.
func New(deps Deps) *Server {
	return &Server{deps: deps, validate: validator.New()}
}

// Routes returns the HTTP handler of the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)

	if s.deps.Exporter != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Exporter.Handler(s.updateGauges))
	}

	r.Group(func(r chi.Router) {
		r.Use(TokenAuth(s.deps.Token))
		r.Get("/state", s.getState)
		r.Get("/commands", s.getCommands)
		r.Post("/commands/{name}", s.postCommand)
		r.Post("/resume", s.postResume)
		r.Post("/speed", s.postSpeed)
		r.Post("/repeat", s.postRepeat)
		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.getItems)
			r.Post("/", s.postItem)
			r.Delete("/", s.deleteItems)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", s.deleteItem)
				r.Post("/current", s.postCurrent)
				r.Post("/move", s.postMove)
				r.Put("/descriptor", s.putDescriptor)
			})
		})
	})
	return r
}

// call runs fn on the executor.
func (s *Server) call(ctx context.Context, fn func() error) error {
	var err error
	if cerr := s.deps.Caller.Call(ctx, func() { err = fn() }); cerr != nil {
		return cerr
	}
	return err
}

func (s *Server) updateGauges() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.deps.Caller.Call(ctx, func() {
		snap := s.deps.Player.Snapshot()
		s.deps.Exporter.SetQueueItems(len(snap.Items))
		s.deps.Exporter.SetSpeed(snap.Speed.Value)
	})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	var resp StateResponse
	err := s.call(r.Context(), func() error {
		resp = stateResponse(s.deps.Player.Snapshot(), s.deps.Bridge.Availability().Get())
		return nil
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getItems(w http.ResponseWriter, r *http.Request) {
	var resp []ItemResponse
	err := s.call(r.Context(), func() error {
		resp = itemsResponse(s.deps.Player.Items().Get())
		return nil
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) postItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !s.decode(w, r, &req) {
		return
	}

	it := item.New(item.Descriptor{Kind: req.Kind, Locator: req.Locator, Title: req.Title, Settings: req.Settings})
	err := s.call(r.Context(), func() error {
		p := s.deps.Player
		var err error
		switch {
		case req.Before != "":
			err = p.InsertBefore(item.ID(req.Before), it)
		case req.After != "":
			err = p.InsertAfter(item.ID(req.After), it)
		case req.Prepend:
			err = p.Prepend(it)
		default:
			err = p.Append(it)
		}
		if err != nil || !req.Current {
			return err
		}
		return p.SetCurrent(it.ID())
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	zlog.Info().Msgf("http: item added: item_id=%s kind=%s locator=%s", it.ID(), req.Kind, req.Locator)
	writeJSON(w, http.StatusCreated, AddItemResponse{ID: string(it.ID())})
}

func (s *Server) deleteItems(w http.ResponseWriter, r *http.Request) {
	err := s.call(r.Context(), func() error {
		s.deps.Player.RemoveAll()
		return nil
	})
	writeResult(w, err)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := item.ID(chi.URLParam(r, "id"))
	writeResult(w, s.call(r.Context(), func() error { return s.deps.Player.Remove(id) }))
}

func (s *Server) postCurrent(w http.ResponseWriter, r *http.Request) {
	id := item.ID(chi.URLParam(r, "id"))
	writeResult(w, s.call(r.Context(), func() error { return s.deps.Player.SetCurrent(id) }))
}

func (s *Server) postMove(w http.ResponseWriter, r *http.Request) {
	var req MoveItemRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := item.ID(chi.URLParam(r, "id"))
	writeResult(w, s.call(r.Context(), func() error { return s.deps.Player.Move(id, req.Index) }))
}

func (s *Server) putDescriptor(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := item.ID(chi.URLParam(r, "id"))
	d := item.Descriptor{Kind: req.Kind, Locator: req.Locator, Title: req.Title, Settings: req.Settings}
	writeResult(w, s.call(r.Context(), func() error { return s.deps.Player.UpdateDescriptor(id, d) }))
}

func (s *Server) getCommands(w http.ResponseWriter, r *http.Request) {
	var resp remote.Availability
	err := s.call(r.Context(), func() error {
		resp = s.deps.Bridge.Availability().Get()
		return nil
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) postCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	args := remote.Args{Position: mo.None[time.Duration]()}
	if req.PositionMs != nil {
		args.Position = mo.Some(time.Duration(*req.PositionMs) * time.Millisecond)
	}
	name := chi.URLParam(r, "name")
	writeResult(w, s.call(r.Context(), func() error { return s.deps.Bridge.Execute(name, args) }))
}

func (s *Server) postResume(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if !s.decode(w, r, &req) {
		return
	}
	position := resume.Default()
	if req.PositionMs != nil {
		position = resume.At(time.Duration(*req.PositionMs) * time.Millisecond)
	}
	err := s.call(r.Context(), func() error {
		s.deps.Player.Resume(position, item.ID(req.ItemID))
		return nil
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) postSpeed(w http.ResponseWriter, r *http.Request) {
	var req SpeedRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeResult(w, s.call(r.Context(), func() error { return s.deps.Player.SetSpeed(req.Value) }))
}

func (s *Server) postRepeat(w http.ResponseWriter, r *http.Request) {
	var req RepeatRequest
	if !s.decode(w, r, &req) {
		return
	}
	mode, _ := queue.ParseRepeatMode(req.Mode)
	writeResult(w, s.call(r.Context(), func() error {
		s.deps.Player.SetRepeat(mode)
		return nil
	}))
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		zlog.Debug().Msgf("http: invalid body: path=%s error=%v", r.URL.Path, err)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Msgf("http: encode response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeResult(w http.ResponseWriter, err error) {
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusOf maps errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, queue.ErrItemNotFound), errors.Is(err, remote.ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrDuplicateItem),
		errors.Is(err, remote.ErrCommandUnavailable),
		errors.Is(err, playback.ErrNoCurrentItem),
		errors.Is(err, playback.ErrNotSeekable),
		errors.Is(err, playback.ErrNoNextItem),
		errors.Is(err, playback.ErrNoPreviousItem):
		return http.StatusConflict
	case errors.Is(err, remote.ErrMissingPosition),
		errors.Is(err, queue.ErrNilItem),
		errors.Is(err, playback.ErrInvalidSpeed):
		return http.StatusBadRequest
	case errors.Is(err, executor.ErrStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		zlog.Error().Msgf("http: request failed: %v", err)
	}
	writeError(w, status, err.Error())
}
