package usecase

import (
	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/pkg/categorizer"
	"flightwindow-service/pkg/logger"
	"flightwindow-service/pkg/metrics"
)

// LogSink writes each diagnostic as a warning
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a sink that logs through l
func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{logger: l}
}

// Report logs d.
func (s *LogSink) Report(d entity.Diagnostic) {
	kv := []interface{}{"kind", string(d.Kind)}
	if d.Field != "" {
		kv = append(kv, "field", d.Field)
	}
	if d.Value != "" {
		kv = append(kv, "value", d.Value)
	}
	if d.Flight != "" {
		kv = append(kv, "flight", d.Flight)
	}
	if d.Err != nil {
		kv = append(kv, "error", d.Err)
	}
	s.logger.Warn("Data quality problem absorbed", kv...)
}

// MetricsSink counts diagnostics by kind and field
type MetricsSink struct {
	metrics *metrics.Metrics
}

// NewMetricsSink creates a sink backed by m
func NewMetricsSink(m *metrics.Metrics) *MetricsSink {
	return &MetricsSink{metrics: m}
}

// Report increments the diagnostics counter.
func (s *MetricsSink) Report(d entity.Diagnostic) {
	s.metrics.Diagnostics.WithLabelValues(string(d.Kind), d.Field).Inc()
}

// NewDiagnosticSink fans diagnostics out to the logger and, when m is not
// nil, to metrics.
func NewDiagnosticSink(l logger.Logger, m *metrics.Metrics) categorizer.Sink {
	sinks := []categorizer.Sink{NewLogSink(l)}
	if m != nil {
		sinks = append(sinks, NewMetricsSink(m))
	}
	return categorizer.MultiSink(sinks...)
}
