package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter mirrors recorded entries and events as Prometheus metrics.
type Exporter struct {
	registry        *prometheus.Registry
	stallsTotal     prometheus.Counter
	stallSeconds    prometheus.Counter
	playingSeconds  prometheus.Counter
	bytesTotal      prometheus.Counter
	droppedFrames   prometheus.Counter
	bitrate         prometheus.Gauge
	snapshotsTotal  *prometheus.CounterVec
	itemEventsTotal *prometheus.CounterVec
	queueItems      prometheus.Gauge
	speed           prometheus.Gauge
}

// NewExporter creates and registers the Prometheus metrics.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		stallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playqueue_stalls_total",
			Help: "Total number of playback stalls",
		}),
		stallSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playqueue_stall_seconds_total",
			Help: "Total time spent stalled",
		}),
		playingSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playqueue_playing_seconds_total",
			Help: "Total time spent playing",
		}),
		bytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playqueue_transferred_bytes_total",
			Help: "Total number of media bytes transferred",
		}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playqueue_dropped_frames_total",
			Help: "Total number of dropped frames",
		}),
		bitrate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "playqueue_indicated_bitrate",
			Help: "Indicated bitrate of the current resource",
		}),
		snapshotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playqueue_metrics_snapshots_total",
			Help: "Total number of metrics snapshots by trigger",
		}, []string{"trigger"}),
		itemEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playqueue_item_events_total",
			Help: "Total number of item events by kind",
		}, []string{"kind"}),
		queueItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "playqueue_queue_items",
			Help: "Number of items in the queue",
		}),
		speed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "playqueue_speed",
			Help: "Effective playback speed",
		}),
	}

	registry.MustRegister(
		e.stallsTotal,
		e.stallSeconds,
		e.playingSeconds,
		e.bytesTotal,
		e.droppedFrames,
		e.bitrate,
		e.snapshotsTotal,
		e.itemEventsTotal,
		e.queueItems,
		e.speed,
	)
	return e
}

// Observe adds the deltas of an entry to the totals.
func (x *Exporter) Observe(e Entry) {
	x.snapshotsTotal.WithLabelValues(string(e.Trigger)).Inc()
	// Counters reset with the resource; negative deltas are dropped
	if e.Delta.Stalls > 0 {
		x.stallsTotal.Add(float64(e.Delta.Stalls))
	}
	if e.Delta.StallDuration > 0 {
		x.stallSeconds.Add(e.Delta.StallDuration.Seconds())
	}
	if e.Delta.PlayingDuration > 0 {
		x.playingSeconds.Add(e.Delta.PlayingDuration.Seconds())
	}
	if e.Delta.BytesTransferred > 0 {
		x.bytesTotal.Add(float64(e.Delta.BytesTransferred))
	}
	if e.Delta.DroppedFrames > 0 {
		x.droppedFrames.Add(float64(e.Delta.DroppedFrames))
	}
	x.bitrate.Set(e.Total.Bitrate)
}

// Log counts an item event.
func (x *Exporter) Log(e Event) {
	x.itemEventsTotal.WithLabelValues(string(e.Kind)).Inc()
}

// SetQueueItems sets the queue size gauge.
func (x *Exporter) SetQueueItems(n int) {
	x.queueItems.Set(float64(n))
}

// SetSpeed sets the speed gauge.
func (x *Exporter) SetSpeed(v float64) {
	x.speed.Set(v)
}

// Registry returns the registry holding the metrics.
func (x *Exporter) Registry() *prometheus.Registry {
	return x.registry
}

// Handler returns an http.Handler that serves the metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (x *Exporter) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(x.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
