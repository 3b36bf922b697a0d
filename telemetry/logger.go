package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sundownlabs/teardown/types"
)

// OTELHook adds trace and span IDs to every log entry.
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL trace correlation.
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger scoped to one engine component.
func NewLogger(component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context for trace propagation.
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// LogAttempt logs the terminal outcome of one destruction attempt.
func (l *Logger) LogAttempt(ctx context.Context, a types.Attempt) {
	event := l.WithContext(ctx).Info()
	if a.Status == types.StatusFailed || a.Status == types.StatusTimedOut {
		event = l.WithContext(ctx).Warn()
	}

	event.
		Str("resource_type", string(a.Resource.Type)).
		Str("resource_id", a.Resource.ID).
		Str("region", a.Resource.Region).
		Int("phase", a.Phase).
		Str("status", string(a.Status)).
		Int("attempt_number", a.AttemptNumber).
		Bool("simulated", a.Simulated).
		Str("reason", a.Reason).
		Msg("destruction attempt")
}

// LogPhaseStart logs entry into a destruction phase.
func (l *Logger) LogPhaseStart(ctx context.Context, phase, resources int) {
	l.WithContext(ctx).Info().
		Int("phase", phase).
		Int("resources", resources).
		Msg("phase starting")
}

// LogPhaseDone logs completion of a destruction phase.
func (l *Logger) LogPhaseDone(ctx context.Context, phase int, counts types.StatusCounts) {
	l.WithContext(ctx).Info().
		Int("phase", phase).
		Int("deleted", counts.Deleted).
		Int("simulated", counts.Simulated).
		Int("failed", counts.Failed).
		Int("timed_out", counts.TimedOut).
		Msg("phase complete")
}

// LogBarrier logs the eventual-consistency pause between phases.
func (l *Logger) LogBarrier(ctx context.Context, afterPhase int, delay string) {
	l.WithContext(ctx).Info().
		Int("after_phase", afterPhase).
		Str("delay", delay).
		Msg("waiting for remote state to converge")
}

// LogClassification logs the preserve/delete split of a snapshot.
func (l *Logger) LogClassification(ctx context.Context, total, preserved, deletable int) {
	l.WithContext(ctx).Info().
		Int("total", total).
		Int("preserved", preserved).
		Int("deletable", deletable).
		Msg("snapshot classified")
}
