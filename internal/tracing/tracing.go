package tracing

import (
	"context"
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	appconfig "github.com/therealutkarshpriyadarshi/coursehub/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// InitTracer initializes the Jaeger tracer and installs it globally. When
// tracing is disabled a no-op tracer is installed instead.
func InitTracer(cfg appconfig.TracingConfig) (opentracing.Tracer, io.Closer, error) {
	if !cfg.Enabled {
		tracer := opentracing.NoopTracer{}
		opentracing.SetGlobalTracer(tracer)
		return tracer, nopCloser{}, nil
	}

	jcfg := &jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeProbabilistic,
			Param: cfg.SampleRate,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:           false,
			LocalAgentHostPort: cfg.Endpoint,
		},
	}

	tracer, closer, err := jcfg.NewTracer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}

// StartSpan starts a new span with the given operation name
func StartSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, operationName)
}

// FinishSpan finishes a span
func FinishSpan(span opentracing.Span) {
	if span != nil {
		span.Finish()
	}
}

// LogError marks the span as failed
func LogError(span opentracing.Span, err error) {
	if span != nil && err != nil {
		ext.Error.Set(span, true)
		span.LogKV("error", err.Error())
	}
}

// SetTag sets a tag on the span
func SetTag(span opentracing.Span, key string, value interface{}) {
	if span != nil {
		span.SetTag(key, value)
	}
}

// InjectHeaders serializes the span context into message headers
func InjectHeaders(span opentracing.Span) map[string]interface{} {
	carrier := opentracing.TextMapCarrier{}
	if span == nil {
		return nil
	}
	if err := span.Tracer().Inject(span.Context(), opentracing.TextMap, carrier); err != nil {
		return nil
	}

	headers := make(map[string]interface{}, len(carrier))
	for k, v := range carrier {
		headers[k] = v
	}
	return headers
}

// StartSpanFromHeaders starts a consumer span that continues the trace
// carried in message headers, if any
func StartSpanFromHeaders(ctx context.Context, operationName string, headers map[string]interface{}) (opentracing.Span, context.Context) {
	tracer := opentracing.GlobalTracer()

	carrier := opentracing.TextMapCarrier{}
	for k, v := range headers {
		if s, ok := v.(string); ok {
			carrier[k] = s
		}
	}

	var opts []opentracing.StartSpanOption
	if parent, err := tracer.Extract(opentracing.TextMap, carrier); err == nil {
		opts = append(opts, opentracing.FollowsFrom(parent))
	}

	span := tracer.StartSpan(operationName, opts...)
	ext.SpanKindConsumer.Set(span)
	return span, opentracing.ContextWithSpan(ctx, span)
}
