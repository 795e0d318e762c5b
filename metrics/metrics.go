// Package metrics exposes Prometheus metrics for timers and recorded sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benjamonnguyen/pomostudy"
)

const (
	OutcomeCompleted   = "completed"
	OutcomeInterrupted = "interrupted"
)

// Collector holds pomostudy metrics on its own registry so several can
// coexist in one process (tests).
//
// Metrics:
//   - pomostudy_sessions_total{interval,outcome} - finalized sessions
//   - pomostudy_focused_minutes_total - planned minutes of completed work sessions
//   - pomostudy_session_elapsed_seconds{interval} - wall-clock length of finalized sessions
//   - pomostudy_active_timers - timers currently hosted
type Collector struct {
	reg *prometheus.Registry

	SessionsTotal         *prometheus.CounterVec
	FocusedMinutesTotal   prometheus.Counter
	SessionElapsedSeconds *prometheus.HistogramVec
	ActiveTimers          prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		reg: reg,
		SessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pomostudy_sessions_total",
				Help: "Total number of finalized sessions",
			},
			[]string{"interval", "outcome"},
		),
		FocusedMinutesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pomostudy_focused_minutes_total",
				Help: "Planned minutes of completed work sessions",
			},
		),
		SessionElapsedSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pomostudy_session_elapsed_seconds",
				Help:    "Wall-clock length of finalized sessions in seconds",
				Buckets: prometheus.ExponentialBuckets(60, 2, 8), // 1m to ~2h
			},
			[]string{"interval"},
		),
		ActiveTimers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pomostudy_active_timers",
				Help: "Number of timers currently hosted",
			},
		),
	}
}

// ObserveSession is meant to be registered with history.Recorder.OnRecord.
func (c *Collector) ObserveSession(r pomostudy.SessionRecord) {
	outcome := OutcomeInterrupted
	if r.Completed {
		outcome = OutcomeCompleted
	}
	interval := r.IntervalType.Key()
	c.SessionsTotal.WithLabelValues(interval, outcome).Inc()
	c.SessionElapsedSeconds.WithLabelValues(interval).Observe(r.Elapsed().Seconds())
	if r.Completed && r.IntervalType == pomostudy.WorkInterval {
		c.FocusedMinutesTotal.Add(float64(r.PlannedDurationMinutes))
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
