package httpapi

import (
	"time"

	"github.com/samber/lo"

	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/app/playback"
	"github.com/osa030/playqueue/internal/app/remote"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// ItemResponse is an item of the queue.
type ItemResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RangeResponse is a timeline range in milliseconds.
type RangeResponse struct {
	Kind    string `json:"kind"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
}

// TimeResponse is the time of the current item in milliseconds.
type TimeResponse struct {
	PositionMs      int64      `json:"position_ms"`
	SeekableStartMs int64      `json:"seekable_start_ms"`
	SeekableEndMs   int64      `json:"seekable_end_ms"`
	Date            *time.Time `json:"date,omitempty"`
}

// SpeedResponse is the playback speed.
type SpeedResponse struct {
	Value float64  `json:"value"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// MetricsResponse is the latest metrics entry of the current item.
type MetricsResponse struct {
	Trigger  string           `json:"trigger"`
	Interval string           `json:"interval"`
	Delta    metrics.Counters `json:"delta"`
	Total    metrics.Counters `json:"total"`
}

// StateResponse is the consolidated player state.
type StateResponse struct {
	Current             string           `json:"current,omitempty"`
	State               string           `json:"state"`
	Repeat              string           `json:"repeat"`
	Navigation          string           `json:"navigation"`
	CanReturnToPrevious bool             `json:"can_return_to_previous"`
	CanAdvanceToNext    bool             `json:"can_advance_to_next"`
	Items               []ItemResponse   `json:"items"`
	Speed               SpeedResponse    `json:"speed"`
	Time                *TimeResponse    `json:"time,omitempty"`
	Ranges              []RangeResponse  `json:"ranges"`
	Error               string           `json:"error,omitempty"`
	Metrics             *MetricsResponse `json:"metrics,omitempty"`
	Commands            map[string]bool  `json:"commands"`
}

// AddItemRequest adds an item to the queue. Before and After are mutually
// exclusive; without either the item is appended, or prepended when Prepend
// is set.
type AddItemRequest struct {
	Kind     string         `json:"kind" validate:"required"`
	Locator  string         `json:"locator"`
	Title    string         `json:"title"`
	Settings map[string]any `json:"settings"`
	Before   string         `json:"before" validate:"excluded_with=After"`
	After    string         `json:"after"`
	Prepend  bool           `json:"prepend"`
	Current  bool           `json:"current"` // Make the new item current
}

// AddItemResponse is returned for an added item.
type AddItemResponse struct {
	ID string `json:"id"`
}

// MoveItemRequest moves an item to an index.
type MoveItemRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

// CommandRequest carries remote command arguments.
type CommandRequest struct {
	PositionMs *int64 `json:"position_ms" validate:"omitempty,gte=0"`
}

// ResumeRequest resumes an item. Without a position the item starts at its
// default position.
type ResumeRequest struct {
	ItemID     string `json:"item_id" validate:"required"`
	PositionMs *int64 `json:"position_ms" validate:"omitempty,gte=0"`
}

// SpeedRequest sets the playback speed.
type SpeedRequest struct {
	Value float64 `json:"value" validate:"gt=0"`
}

// RepeatRequest sets the repeat mode.
type RepeatRequest struct {
	Mode string `json:"mode" validate:"oneof=off one all"`
}

// ErrorResponse is returned on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

func ms(d time.Duration) int64 {
	return d.Milliseconds()
}

func itemsResponse(views []playback.ItemView) []ItemResponse {
	return lo.Map(views, func(v playback.ItemView, _ int) ItemResponse {
		return ItemResponse{ID: string(v.ID), Title: v.Title, Kind: v.Kind, Status: v.Status.String(), Error: v.Error}
	})
}

func rangesResponse(rs []timeline.Range) []RangeResponse {
	return lo.Map(rs, func(r timeline.Range, _ int) RangeResponse {
		return RangeResponse{Kind: r.Kind.String(), StartMs: ms(r.Start), EndMs: ms(r.End)}
	})
}

func stateResponse(s playback.Snapshot, commands remote.Availability) StateResponse {
	resp := StateResponse{
		Current:             string(s.Current.OrEmpty()),
		State:               s.State.String(),
		Repeat:              s.Repeat.String(),
		Navigation:          s.Navigation.String(),
		CanReturnToPrevious: s.Navigability.CanReturnToPrevious,
		CanAdvanceToNext:    s.Navigability.CanAdvanceToNext,
		Items:               itemsResponse(s.Items),
		Speed:               SpeedResponse{Value: s.Speed.Value},
		Ranges:              rangesResponse(s.Ranges),
		Commands:            commands,
	}
	if r, ok := s.Speed.Range.Get(); ok {
		resp.Speed.Min, resp.Speed.Max = lo.ToPtr(r.Min), lo.ToPtr(r.Max)
	}
	if s.Current.IsPresent() && s.Time.ItemID == s.Current.OrEmpty() {
		t := &TimeResponse{
			PositionMs:      ms(s.Time.Position),
			SeekableStartMs: ms(s.Time.Seekable.Start),
			SeekableEndMs:   ms(s.Time.Seekable.End),
		}
		if !s.Time.Date.IsZero() {
			t.Date = lo.ToPtr(s.Time.Date)
		}
		resp.Time = t
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	if len(s.Metrics) > 0 {
		last := s.Metrics[len(s.Metrics)-1]
		resp.Metrics = &MetricsResponse{
			Trigger:  string(last.Trigger),
			Interval: last.Interval.String(),
			Delta:    last.Delta,
			Total:    last.Total,
		}
	}
	return resp
}
