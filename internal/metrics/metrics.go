// Package metrics exposes the collector, gyle log and controller link counters
// to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chamber"

// Metrics implements gylelog.Observer and chamber.Observer. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	readingsCollected prometheus.Counter
	readingsFlushed   prometheus.Counter
	readingsWritten   prometheus.Counter
	flushes           prometheus.Counter
	segmentsWritten   *prometheus.CounterVec
	segmentsDeleted   *prometheus.CounterVec
	signals           *prometheus.CounterVec
	pollFailures      *prometheus.CounterVec
	linkEvents        *prometheus.CounterVec
	paramsMismatches  *prometheus.CounterVec
	activeGyles       prometheus.Gauge
	tickDuration      prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers every collector on reg. Pass a fresh prometheus.NewRegistry()
// in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		readingsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_collected_total",
			Help:      "Readings accepted into a gyle log buffer.",
		}),
		readingsFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_flushed_total",
			Help:      "Readings taken out of buffers for flushing, before optimisation.",
		}),
		readingsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_written_total",
			Help:      "Readings written to generation 1 segments, after optimisation.",
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_flushes_total",
			Help:      "Buffers flushed to disk.",
		}),
		segmentsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_written_total",
			Help:      "Segments written, by generation.",
		}, []string{"generation"}),
		segmentsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_deleted_total",
			Help:      "Superseded segments deleted, by generation.",
		}, []string{"generation"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Left-switched-off signals raised, by signal.",
		}, []string{"signal"}),
		pollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Failed chamber polls, by chamber.",
		}, []string{"chamber"}),
		linkEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_link_events_total",
			Help:      "Controller link opens and failures.",
		}, []string{"event"}),
		paramsMismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "params_mismatches_total",
			Help:      "Polls where the controller echoed different parameters, by chamber.",
		}, []string{"chamber"}),
		activeGyles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_gyles",
			Help:      "Gyles currently being logged.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collector_tick_duration_seconds",
			Help:      "Time taken to poll every chamber once.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.readingsCollected,
		m.readingsFlushed,
		m.readingsWritten,
		m.flushes,
		m.segmentsWritten,
		m.segmentsDeleted,
		m.signals,
		m.pollFailures,
		m.linkEvents,
		m.paramsMismatches,
		m.activeGyles,
		m.tickDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry this Metrics was created with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ReadingCollected() {
	if m == nil {
		return
	}
	m.readingsCollected.Inc()
}

func (m *Metrics) BufferFlushed(in, out int) {
	if m == nil {
		return
	}
	m.flushes.Inc()
	m.readingsFlushed.Add(float64(in))
	m.readingsWritten.Add(float64(out))
}

func (m *Metrics) SegmentWritten(generation int) {
	if m == nil {
		return
	}
	m.segmentsWritten.WithLabelValues(strconv.Itoa(generation)).Inc()
}

func (m *Metrics) SegmentDeleted(generation int) {
	if m == nil {
		return
	}
	m.segmentsDeleted.WithLabelValues(strconv.Itoa(generation)).Inc()
}

func (m *Metrics) SignalRaised(signal string) {
	if m == nil {
		return
	}
	m.signals.WithLabelValues(signal).Inc()
}

func (m *Metrics) LinkOpened() {
	if m == nil {
		return
	}
	m.linkEvents.WithLabelValues("opened").Inc()
}

func (m *Metrics) LinkFailed() {
	if m == nil {
		return
	}
	m.linkEvents.WithLabelValues("failed").Inc()
}

func (m *Metrics) ParamsMismatch(chamberID int) {
	if m == nil {
		return
	}
	m.paramsMismatches.WithLabelValues(strconv.Itoa(chamberID)).Inc()
}

func (m *Metrics) PollFailed(chamberID int) {
	if m == nil {
		return
	}
	m.pollFailures.WithLabelValues(strconv.Itoa(chamberID)).Inc()
}

func (m *Metrics) SetActiveGyles(n int) {
	if m == nil {
		return
	}
	m.activeGyles.Set(float64(n))
}

func (m *Metrics) TickCompleted(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

// GinMiddleware records request counts and durations by matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
