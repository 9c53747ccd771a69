package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xenking/inventory-core/internal/repository"

type operationKey struct{}

type queryStartKey struct{}

// withOperation tags ctx with the store operation name used as the span name
// and metric label of the next statement.
func withOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

func operationFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok {
		return op
	}
	return "query"
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

// QueryTracer is a pgx.QueryTracer that opens a span per statement and
// records statement duration and failures, labelled by store operation.
type QueryTracer struct {
	tracer   trace.Tracer
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

// NewQueryTracer creates a QueryTracer from the given providers.
func NewQueryTracer(tp trace.TracerProvider, mp metric.MeterProvider) (*QueryTracer, error) {
	meter := mp.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("inventory.db.statement.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of inventory store statements"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create duration histogram")
	}

	failures, err := meter.Int64Counter("inventory.db.statement.failures",
		metric.WithDescription("Inventory store statements that returned an error"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create failure counter")
	}

	return &QueryTracer{
		tracer:   tp.Tracer(instrumentationName),
		duration: duration,
		failures: failures,
	}, nil
}

// TraceQueryStart implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, _ = t.tracer.Start(ctx, operationFromContext(ctx),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", data.SQL),
		),
	)
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

// TraceQueryEnd implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("db.operation", operationFromContext(ctx)))
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		t.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}

	if data.Err != nil {
		t.failures.Add(ctx, 1, attrs)
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
}
