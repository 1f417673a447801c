package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics (debug API)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Registry metrics
	PortsRegistered prometheus.Gauge
	RegistryOps     *prometheus.CounterVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionFailures *prometheus.CounterVec

	// HLE dispatch metrics
	IPCRequests *prometheus.CounterVec
	IPCDuration *prometheus.HistogramVec

	// Synchronization metrics
	WaitDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	PortsRegistered int64 `json:"ports_registered"`
	SessionsActive  int64 `json:"sessions_active"`
	SessionsCreated int64 `json:"sessions_created"`
	SessionFailures int64 `json:"session_failures"`
	IPCRequests     int64 `json:"ipc_requests"`
	IPCErrors       int64 `json:"ipc_errors"`
}

// NewMetrics creates a new metrics collector registered on reg. A nil reg
// uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hle_debug_http_requests_total",
				Help: "Total number of debug API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hle_debug_http_request_duration_seconds",
				Help:    "Debug API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		PortsRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hle_sm_ports_registered",
				Help: "Number of service ports in the service manager registry",
			},
		),
		RegistryOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hle_sm_registry_operations_total",
				Help: "Registry operations by kind and result",
			},
			[]string{"op", "result"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hle_kernel_sessions_active",
				Help: "Number of live session pairs",
			},
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hle_kernel_sessions_created_total",
				Help: "Total number of session pairs created",
			},
		),
		SessionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hle_kernel_session_failures_total",
				Help: "Session creation failures by reason",
			},
			[]string{"reason"},
		),

		IPCRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hle_ipc_requests_total",
				Help: "HLE requests by service, command and result",
			},
			[]string{"service", "command", "result"},
		),
		IPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hle_ipc_request_duration_seconds",
				Help:    "HLE request handling duration in seconds",
				Buckets: []float64{.00001, .0001, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"service", "command"},
		),

		WaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hle_kernel_wait_duration_seconds",
				Help:    "Time spent in WaitSynchronization",
				Buckets: []float64{.0001, .001, .01, .1, .5, 1, 5, 10},
			},
			[]string{"outcome"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hle_uptime_seconds",
				Help: "Kernel uptime in seconds",
			},
		),
	}

	return m
}

// UpdateUptime refreshes the uptime gauge. Called on scrape by the debug API.
func (m *Metrics) UpdateUptime() {
	if m == nil {
		return
	}
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordHTTPRequest records a debug API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRegistryOp records a register/unregister/lookup outcome
func (m *Metrics) RecordRegistryOp(op, result string) {
	if m == nil {
		return
	}
	m.RegistryOps.WithLabelValues(op, result).Inc()
}

// SetPortsRegistered sets the number of registered service ports
func (m *Metrics) SetPortsRegistered(count int) {
	if m == nil {
		return
	}
	m.PortsRegistered.Set(float64(count))
	m.mu.Lock()
	m.snapshot.PortsRegistered = int64(count)
	m.mu.Unlock()
}

// SessionOpened records a newly paired session
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
	m.SessionsCreated.Inc()
	m.mu.Lock()
	m.snapshot.SessionsActive++
	m.snapshot.SessionsCreated++
	m.mu.Unlock()
}

// SessionFinalized records the destruction of a session pair
func (m *Metrics) SessionFinalized() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.mu.Lock()
	m.snapshot.SessionsActive--
	m.mu.Unlock()
}

// RecordSessionFailure records a failed connect attempt
func (m *Metrics) RecordSessionFailure(reason string) {
	if m == nil {
		return
	}
	m.SessionFailures.WithLabelValues(reason).Inc()
	m.mu.Lock()
	m.snapshot.SessionFailures++
	m.mu.Unlock()
}

// RecordIPCRequest records one HLE request
func (m *Metrics) RecordIPCRequest(service, command, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.IPCRequests.WithLabelValues(service, command, result).Inc()
	m.IPCDuration.WithLabelValues(service, command).Observe(duration.Seconds())
	m.mu.Lock()
	m.snapshot.IPCRequests++
	if result != "success" {
		m.snapshot.IPCErrors++
	}
	m.mu.Unlock()
}

// RecordWait records how long a WaitSynchronization call blocked
func (m *Metrics) RecordWait(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.WaitDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
