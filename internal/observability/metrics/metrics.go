package metrics

import "github.com/prometheus/client_golang/prometheus"

// GatewayMetrics exposes counters/histograms for calls to the clinic API.
type GatewayMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_console",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total clinic API requests by resource, operation and outcome",
		}, []string{"resource", "op", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic_console",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Latency of clinic API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// ObserveRequest records one finished request. outcome is "ok", "request_error"
// or "network_error".
func (m *GatewayMetrics) ObserveRequest(resource, op, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(resource, op, outcome).Inc()
	m.requestDuration.WithLabelValues(resource, op).Observe(seconds)
}

// CacheMetrics tracks the per-resource query cache.
type CacheMetrics struct {
	lookups       *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_console",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Query cache lookups by key and result (hit, miss, error)",
		}, []string{"key", "result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_console",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Query cache invalidations by key",
		}, []string{"key"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.lookups, m.invalidations)
	return m
}

func (m *CacheMetrics) ObserveLookup(key, result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(key, result).Inc()
}

func (m *CacheMetrics) ObserveInvalidation(key string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(key).Inc()
}

// ViewMetrics counts view actions and validation rejections.
type ViewMetrics struct {
	actions     *prometheus.CounterVec
	validations *prometheus.CounterVec
}

func NewViewMetrics(reg prometheus.Registerer) *ViewMetrics {
	m := &ViewMetrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_console",
			Subsystem: "view",
			Name:      "actions_total",
			Help:      "View actions by view, action and status",
		}, []string{"view", "action", "status"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_console",
			Subsystem: "view",
			Name:      "validation_failures_total",
			Help:      "Form submissions blocked client-side, by view and field",
		}, []string{"view", "field"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.actions, m.validations)
	return m
}

func (m *ViewMetrics) ObserveAction(view, action, status string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(view, action, status).Inc()
}

func (m *ViewMetrics) ObserveValidationFailure(view, field string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(view, field).Inc()
}
