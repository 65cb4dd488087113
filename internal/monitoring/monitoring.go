package monitoring

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

// Config holds monitoring configuration
type Config struct {
	Namespace      string
	ProcessMetrics bool
}

// Service records domain events and request outcomes as Prometheus metrics
type Service struct {
	config   Config
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewService creates a monitoring service with its own registry
func NewService(config Config) *Service {
	if config.Namespace == "" {
		config.Namespace = "weatherapi"
	}
	s := &Service{
		config:   config,
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "events_total",
				Help:      "Total number of domain events by event name.",
			},
			[]string{"event"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "requests_total",
				Help:      "Total API requests by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	s.registry.MustRegister(s.events, s.requests, s.duration)
	if config.ProcessMetrics {
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return s
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, time.Now().UTC(), labels)
	s.events.WithLabelValues(eventName).Inc()
}

// RecordRequest counts one gateway outcome for an operation
func (s *Service) RecordRequest(operation, outcome string, elapsed time.Duration) {
	s.requests.WithLabelValues(operation, outcome).Inc()
	s.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// EventCount returns how many times eventName was recorded
func (s *Service) EventCount(eventName string) (float64, error) {
	return s.counterValue(s.config.Namespace+"_events_total", map[string]string{"event": eventName})
}

// RequestCount returns the number of requests for operation with the given outcome
func (s *Service) RequestCount(operation, outcome string) (float64, error) {
	return s.counterValue(s.config.Namespace+"_requests_total", map[string]string{
		"operation": operation,
		"outcome":   outcome,
	})
}

func (s *Service) counterValue(name string, labels map[string]string) (float64, error) {
	families, err := s.registry.Gather()
	if err != nil {
		return 0, fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue(), nil
			}
		}
	}
	return 0, nil
}

// Handler serves the registry in the Prometheus exposition format
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}
