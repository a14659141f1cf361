package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "join-board/api"

// searchRequestMetrics collects per-request timings for the task
// search route and emits them as one structured log entry plus one
// trace span when the request completes.
type searchRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	filterDuration time.Duration
	encodeDuration time.Duration
	queryProvided  bool
	tasksReturned  int
	errorStage     string
}

func newSearchRequestMetrics(ctx context.Context, logger *log.Logger) (*searchRequestMetrics, context.Context) {
	m := &searchRequestMetrics{
		logger: logger,
		start:  time.Now(),
	}
	if ctx == nil {
		return m, nil
	}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "board.search")
	m.span = span
	return m, spanCtx
}

func (m *searchRequestMetrics) ObserveFilter(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.filterDuration = duration
}

func (m *searchRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *searchRequestMetrics) SetQueryProvided(provided bool) {
	m.queryProvided = provided
}

func (m *searchRequestMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *searchRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log completes the request record: one logrus entry and, when a span
// was started, span attributes plus status.
func (m *searchRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	severityText, severityNumber := severityForStatus(status, err)

	fields := log.Fields{
		"route":          "/api/tasks",
		"status":         status,
		"severity":       severityText,
		"total_ms":       durationToMillis(time.Since(m.start)),
		"query_provided": m.queryProvided,
		"tasks_returned": m.tasksReturned,
	}
	if m.filterDuration > 0 {
		fields["filter_ms"] = durationToMillis(m.filterDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("tasks.search.metrics")

	if m.span == nil {
		return
	}
	m.span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.Bool("search.query_provided", m.queryProvided),
		attribute.Int("search.tasks_returned", m.tasksReturned),
		attribute.String("severity.text", severityText),
		attribute.Int("severity.number", severityNumber),
	)
	if m.errorStage != "" {
		m.span.SetAttributes(attribute.String("error.stage", m.errorStage))
	}
	if err != nil {
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
	} else if status >= 500 {
		m.span.SetStatus(codes.Error, "server error")
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()
}

// severityForStatus maps a response status onto a log severity pair
// (text plus OpenTelemetry severity number).
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= 500:
		return "ERROR", 17
	case status >= 400:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
