package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments used by the service.
type Metrics struct {
	registry *prometheus.Registry

	TasksDispatched  *prometheus.CounterVec
	LLMStages        *prometheus.CounterVec
	ReminderTriggers *prometheus.CounterVec
	ChatLatency      *prometheus.HistogramVec
	WSConnections    prometheus.Gauge
}

// New registers all instruments on a private registry so tests and multiple
// containers in one process do not collide on the default registerer.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		TasksDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_dispatched_total",
			Help:      "Dispatched tasks by kind and outcome.",
		}, []string{"kind", "outcome"}),
		LLMStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_stage_total",
			Help:      "Fallback chain stage attempts by stage and outcome.",
		}, []string{"stage", "outcome"}),
		ReminderTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_triggers_total",
			Help:      "Reminder trigger transitions by path.",
		}, []string{"path"}),
		ChatLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_latency_ms",
			Help:      "End-to-end message handling latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}, []string{"path"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open WebSocket connections.",
		}),
	}
	reg.MustRegister(
		m.TasksDispatched,
		m.LLMStages,
		m.ReminderTriggers,
		m.ChatLatency,
		m.WSConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveTask(kind, outcome string) {
	if m == nil {
		return
	}
	m.TasksDispatched.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveStage(stage, outcome string) {
	if m == nil {
		return
	}
	m.LLMStages.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) ObserveReminderTrigger(path string) {
	if m == nil {
		return
	}
	m.ReminderTriggers.WithLabelValues(path).Inc()
}

func (m *Metrics) ObserveChat(path string, d time.Duration) {
	if m == nil {
		return
	}
	m.ChatLatency.WithLabelValues(path).Observe(float64(d.Milliseconds()))
}

// ConnOpened and ConnClosed track live WebSocket connections.
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
