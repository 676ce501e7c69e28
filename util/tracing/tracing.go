// Package tracing times engine operations three ways at once: an otel span,
// a gocore stat nested under the stat found in the context, and optional
// prometheus collectors.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type statsKey struct{}

var rootStat = gocore.NewStat("chainstate", true)

type Options func(s *TraceOptions)

type TraceOptions struct {
	ParentStat *gocore.Stat
	Histogram  prometheus.Histogram
	Counter    prometheus.Counter
	Tags       []attribute.KeyValue
	Logger     ulogger.Logger
	LogMessage string
	LogArgs    []interface{}
	LogDebug   bool
}

// WithParentStat is the stat used when the context does not carry one.
func WithParentStat(stat *gocore.Stat) Options {
	return func(s *TraceOptions) {
		s.ParentStat = stat
	}
}

// WithHistogram sets the prometheus histogram observed, in seconds, when the span ends.
func WithHistogram(histogram prometheus.Histogram) Options {
	return func(s *TraceOptions) {
		s.Histogram = histogram
	}
}

// WithCounter sets the prometheus counter incremented when the span ends.
func WithCounter(counter prometheus.Counter) Options {
	return func(s *TraceOptions) {
		s.Counter = counter
	}
}

func WithTag(key, value string) Options {
	return func(s *TraceOptions) {
		s.Tags = append(s.Tags, attribute.String(key, value))
	}
}

// WithLogMessage logs format at INFO when the span starts and again, with the
// elapsed time, when it ends.
func WithLogMessage(logger ulogger.Logger, format string, args ...interface{}) Options {
	return func(s *TraceOptions) {
		s.Logger = logger
		s.LogMessage = format
		s.LogArgs = args
	}
}

// WithDebugLogMessage is WithLogMessage at DEBUG.
func WithDebugLogMessage(logger ulogger.Logger, format string, args ...interface{}) Options {
	return func(s *TraceOptions) {
		s.Logger = logger
		s.LogMessage = format
		s.LogArgs = args
		s.LogDebug = true
	}
}

type UTracer struct {
	tracer trace.Tracer
}

// Tracer returns a tracer from the global otel provider. Without a configured
// provider the spans are no-ops and only the stats and metrics are kept.
func Tracer(name string) *UTracer {
	return &UTracer{tracer: otel.Tracer(name)}
}

// Start opens a span named name. The returned function ends it; pass the
// operation's error, if any, to record it on the span and in the log line.
func (u *UTracer) Start(ctx context.Context, name string, setOptions ...Options) (context.Context, trace.Span, func(...error)) {
	options := &TraceOptions{}
	for _, opt := range setOptions {
		opt(options)
	}

	ctx, span := u.tracer.Start(ctx, name, trace.WithAttributes(options.Tags...))

	parent, ok := ctx.Value(statsKey{}).(*gocore.Stat)
	if !ok {
		parent = options.ParentStat
	}

	if parent == nil {
		parent = rootStat
	}

	stat := parent.NewStat(name, true)
	ctx = context.WithValue(ctx, statsKey{}, stat)

	start := time.Now()

	if options.Logger != nil && options.LogMessage != "" {
		options.log(options.LogMessage, options.LogArgs...)
	}

	return ctx, span, func(errs ...error) {
		var err error

		for _, e := range errs {
			if e != nil {
				err = e
				break
			}
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()

		stat.AddTime(start)

		if options.Histogram != nil {
			options.Histogram.Observe(time.Since(start).Seconds())
		}

		if options.Counter != nil {
			options.Counter.Inc()
		}

		if options.Logger != nil && options.LogMessage != "" {
			done := fmt.Sprintf(" DONE in %s", time.Since(start))
			if err != nil {
				done += fmt.Sprintf(" with error: %v", err)
			}

			options.log(options.LogMessage+done, options.LogArgs...)
		}
	}
}

func (o *TraceOptions) log(format string, args ...interface{}) {
	if o.LogDebug {
		o.Logger.Debugf(format, args...)
		return
	}

	o.Logger.Infof(format, args...)
}

// StatFromContext returns the stat of the innermost span started on ctx, or nil.
func StatFromContext(ctx context.Context) *gocore.Stat {
	stat, _ := ctx.Value(statsKey{}).(*gocore.Stat)
	return stat
}
