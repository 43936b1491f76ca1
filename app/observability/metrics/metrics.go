package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SignupTotal            metric.Int64Counter
	LoginTotal             metric.Int64Counter
	TodoOperationsTotal    metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments from the global MeterProvider.
// Instruments created before the provider is installed are delegated to it
// once it is, so calling this early is harmless.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("go-todo-api")
		var err error
		m := &AppMetrics{}

		m.SignupTotal, err = meter.Int64Counter(
			"signup_total",
			metric.WithDescription("Total number of signup attempts"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create signup_total: %v", err)
		}

		m.LoginTotal, err = meter.Int64Counter(
			"login_total",
			metric.WithDescription("Total number of login attempts by result"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create login_total: %v", err)
		}

		m.TodoOperationsTotal, err = meter.Int64Counter(
			"todo_operations_total",
			metric.WithDescription("Total number of todo operations by kind and result"),
			metric.WithUnit("{operation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create todo_operations_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of store queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of store query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized AppMetrics, creating it on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordQuery observes one store round-trip.
func RecordQuery(ctx context.Context, system, operation string, start time.Time, err error) {
	m := Get()
	attrs := metric.WithAttributes(
		attribute.String("db.system", system),
		attribute.String("db.operation", operation),
	)
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func RecordSignup(ctx context.Context, err error) {
	Get().SignupTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result(err))))
}

func RecordLogin(ctx context.Context, outcome string) {
	Get().LoginTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", outcome)))
}

func RecordTodoOperation(ctx context.Context, op string, err error) {
	Get().TodoOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", result(err)),
	))
}
