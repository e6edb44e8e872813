package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineCollector bundles Prometheus metrics for the range engine and the
// HTTP API surface and provides helpers to wire them into handlers.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	RecomputePasses   *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec

	RosterSize          prometheus.Gauge
	InRangeAgents       prometheus.Gauge
	ActiveSubscriptions prometheus.Gauge
	SubscriberFailures  prometheus.Counter
}

// NewEngineCollector registers range-engine Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georange_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "georange_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "georange_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "georange_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georange_recompute_passes_total",
		Help: "Total number of range recompute passes, labeled by trigger (position or roster).",
	}, []string{"trigger"})
	passes, err = registerCounterVec(reg, passes, "georange_recompute_passes_total")
	if err != nil {
		return nil, err
	}

	passDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "georange_recompute_duration_seconds",
		Help:    "Duration of a recompute-and-notify pass in seconds.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	}, []string{"trigger"})
	passDurations, err = registerHistogramVec(reg, passDurations, "georange_recompute_duration_seconds")
	if err != nil {
		return nil, err
	}

	rosterSize, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "georange_roster_agents",
		Help: "Current number of agents in the roster.",
	}), "georange_roster_agents")
	if err != nil {
		return nil, err
	}
	inRange, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "georange_inrange_agents",
		Help: "Number of agents in range after the latest recompute pass.",
	}), "georange_inrange_agents")
	if err != nil {
		return nil, err
	}
	subscriptions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "georange_active_subscriptions",
		Help: "Current number of active range subscriptions.",
	}), "georange_active_subscriptions")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "georange_subscriber_failures_total",
		Help: "Total number of subscriber callbacks that panicked during dispatch.",
	}), "georange_subscriber_failures_total")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:            gatherer,
		HTTPRequests:        requests,
		HTTPDurations:       durations,
		RecomputePasses:     passes,
		RecomputeDuration:   passDurations,
		RosterSize:          rosterSize,
		InRangeAgents:       inRange,
		ActiveSubscriptions: subscriptions,
		SubscriberFailures:  failures,
	}, nil
}

// ObserveRecompute satisfies the engine's MetricsRecorder interface so
// every recompute pass drives counters and gauges directly.
func (c *EngineCollector) ObserveRecompute(trigger string, rosterSize, inRange int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.RecomputePasses != nil {
		c.RecomputePasses.WithLabelValues(trigger).Inc()
	}
	if c.RecomputeDuration != nil {
		c.RecomputeDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
	}
	if c.RosterSize != nil {
		c.RosterSize.Set(float64(rosterSize))
	}
	if c.InRangeAgents != nil {
		c.InRangeAgents.Set(float64(inRange))
	}
}

// SetSubscriberCount satisfies the engine's MetricsRecorder interface.
func (c *EngineCollector) SetSubscriberCount(n int) {
	if c == nil || c.ActiveSubscriptions == nil {
		return
	}
	c.ActiveSubscriptions.Set(float64(n))
}

// IncSubscriberFailure satisfies the engine's MetricsRecorder interface.
func (c *EngineCollector) IncSubscriberFailure() {
	if c == nil || c.SubscriberFailures == nil {
		return
	}
	c.SubscriberFailures.Inc()
}

// Middleware records request counts and durations for every route.
func (c *EngineCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if c == nil {
			return
		}
		route := routeTemplate(r)
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// routeTemplate resolves the mux route template (e.g.
// "/v1/agents/{id}/distance") so per-agent paths don't explode label
// cardinality. Falls back to the raw path when no route matched.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil && tmpl != "" {
			return tmpl
		}
	}
	if r.URL != nil {
		return r.URL.Path
	}
	return "unknown"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
