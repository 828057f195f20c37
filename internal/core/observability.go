package core

import (
	"context"
	"time"

	"varcore/pkg/vmc"
)

// Logger receives structured log events from session operations.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock abstracts time acquisition so bundle metadata is testable.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// MetricsRecorder aggregates operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts spans around session operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a span with the operation outcome.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// AuditStatus classifies the outcome recorded in an audit entry.
type AuditStatus string

// Audit outcomes.
const (
	AuditSuccess AuditStatus = "success"
	AuditError   AuditStatus = "error"
)

// AuditEntry records one session operation for compliance trails.
type AuditEntry struct {
	Operation  string      `json:"operation"`
	Status     AuditStatus `json:"status"`
	EntityID   string      `json:"entity_id,omitempty"`
	Error      string      `json:"error,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// AuditRecorder sinks audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type sessionOptions struct {
	clock     Clock
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	audit     AuditRecorder
	namespace string
}

func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		clock:     ClockFunc(time.Now),
		logger:    noopLogger{},
		metrics:   noopMetricsRecorder{},
		tracer:    noopTracer{},
		audit:     noopAuditRecorder{},
		namespace: vmc.DefaultNamespace,
	}
}

// Option customises session construction.
type Option func(*sessionOptions)

// WithClock overrides the time source used for bundle metadata and audit entries.
func WithClock(clock Clock) Option {
	return func(o *sessionOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger attaches a structured logger to session operations.
func WithLogger(logger Logger) Option {
	return func(o *sessionOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder attaches a metrics sink to session operations.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(o *sessionOptions) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithTracer attaches a tracer to session operations.
func WithTracer(tracer Tracer) Option {
	return func(o *sessionOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithAuditRecorder attaches an audit sink to session operations.
func WithAuditRecorder(rec AuditRecorder) Option {
	return func(o *sessionOptions) {
		if rec != nil {
			o.audit = rec
		}
	}
}

// WithNamespace overrides the identifier namespace for ids computed by the
// session. The default is "VMC".
func WithNamespace(namespace string) Option {
	return func(o *sessionOptions) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}
