package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FlowMetrics 会话流程相关指标
type FlowMetrics struct {
	TransitionsTotal      metric.Int64Counter
	RejectedEventsTotal   metric.Int64Counter
	VerificationsTotal    metric.Int64Counter
	VerificationDuration  metric.Float64Histogram
	IntroFetchDuration    metric.Float64Histogram
	IntroFetchErrorsTotal metric.Int64Counter
	ActiveSessions        metric.Int64UpDownCounter
	AnnouncementsTotal    metric.Int64Counter
}

var (
	// 未初始化时为 nil，所有 Record* 方法都允许 nil 接收者
	metrics *FlowMetrics
)

// InitMetrics 用全局 MeterProvider 创建指标
func InitMetrics() error {
	m, err := NewFlowMetrics(otel.Meter("kindred"))
	if err != nil {
		return err
	}
	metrics = m
	return nil
}

func NewFlowMetrics(meter metric.Meter) (*FlowMetrics, error) {
	var err error
	m := &FlowMetrics{}

	m.TransitionsTotal, err = meter.Int64Counter(
		"flow_transitions_total",
		metric.WithDescription("Total number of accepted flow events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.RejectedEventsTotal, err = meter.Int64Counter(
		"flow_rejected_events_total",
		metric.WithDescription("Total number of events rejected by the flow controller"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.VerificationsTotal, err = meter.Int64Counter(
		"verification_results_total",
		metric.WithDescription("Total number of settled photo verifications"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, err
	}

	m.VerificationDuration, err = meter.Float64Histogram(
		"verification_duration_seconds",
		metric.WithDescription("Time spent waiting for the verification service"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.IntroFetchDuration, err = meter.Float64Histogram(
		"intro_fetch_duration_seconds",
		metric.WithDescription("Time spent fetching introductions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.IntroFetchErrorsTotal, err = meter.Int64Counter(
		"intro_fetch_errors_total",
		metric.WithDescription("Total number of failed introduction fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.ActiveSessions, err = meter.Int64UpDownCounter(
		"flow_active_sessions",
		metric.WithDescription("Number of open sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	m.AnnouncementsTotal, err = meter.Int64Counter(
		"flow_announcements_total",
		metric.WithDescription("Total number of published flow events"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// GetMetrics 获取全局指标实例，可能为 nil
func GetMetrics() *FlowMetrics {
	return metrics
}

// RecordTransition 记录一次被接受的事件
func (m *FlowMetrics) RecordTransition(ctx context.Context, mode, from, to, event string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.String("event", event),
	))
}

func (m *FlowMetrics) RecordRejected(ctx context.Context, mode, step, event string) {
	if m == nil {
		return
	}
	m.RejectedEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("step", step),
		attribute.String("event", event),
	))
}

// RecordVerification 记录核验结果，status 为 success/failure/manual-review/error
func (m *FlowMetrics) RecordVerification(ctx context.Context, status string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.VerificationsTotal.Add(ctx, 1, attrs)
	m.VerificationDuration.Record(ctx, seconds, attrs)
}

func (m *FlowMetrics) RecordIntroFetch(ctx context.Context, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		m.IntroFetchErrorsTotal.Add(ctx, 1)
	}
	m.IntroFetchDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("status", status)))
}

func (m *FlowMetrics) UpdateActiveSessions(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, delta)
}

func (m *FlowMetrics) RecordAnnouncement(ctx context.Context, topic string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.AnnouncementsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("status", status),
	))
}
