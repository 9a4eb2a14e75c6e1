package observability

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/matchweek-backend/internal/logger"
)

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

// traceEnv is the OTEL_* environment surface, read once at init.
type traceEnv struct {
	enabled     bool
	endpoint    string
	insecure    bool
	headers     map[string]string
	sampleRatio float64
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel wires a tracer provider from OTEL_* env vars. It never fails the
// process: with OTEL_ENABLED unset it returns nil, and exporter or resource
// errors degrade to a warn log. Safe to call more than once.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		env := readTraceEnv()
		if !env.enabled {
			return
		}

		name := strings.TrimSpace(cfg.ServiceName)
		if name == "" {
			name = "matchweek"
		}

		res, err := resource.New(ctx, resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
			attribute.String("service.component", name),
		))
		if err != nil && log != nil {
			log.Warn("otel resource init failed (continuing)", "error", err)
		}

		sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(env.sampleRatio))
		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sampler),
			sdktrace.WithResource(res),
		}
		if exporter := env.newExporter(ctx, log); exporter != nil {
			opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
		}

		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		if log != nil {
			log.Info("otel tracing initialized", "service", name, "endpoint", env.endpoint)
		}
	})
	return otelShutdown
}

func readTraceEnv() traceEnv {
	env := traceEnv{
		enabled:     envFlag("OTEL_ENABLED"),
		endpoint:    envString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		insecure:    envFlag("OTEL_EXPORTER_OTLP_INSECURE"),
		headers:     parseHeaderList(envString("OTEL_EXPORTER_OTLP_HEADERS")),
		sampleRatio: 0.1,
	}
	if raw := envString("OTEL_SAMPLER_RATIO"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			env.sampleRatio = clampRatio(f)
		}
	}
	return env
}

// newExporter prefers OTLP over HTTP when an endpoint is configured and falls
// back to a pretty-printed stdout exporter otherwise. A nil return means
// spans are sampled but never shipped.
func (te traceEnv) newExporter(ctx context.Context, log *logger.Logger) sdktrace.SpanExporter {
	if te.endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(te.endpoint)}
		if te.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(te.headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(te.headers))
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			if log != nil {
				log.Warn("otel exporter init failed (continuing)", "error", err)
			}
			return nil
		}
		return exp
	}

	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		if log != nil {
			log.Warn("otel exporter init failed (continuing)", "error", err)
		}
		return nil
	}
	if log != nil {
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	}
	return exp
}

// parseHeaderList parses the w3c-style "k1=v1,k2=v2" header env format.
func parseHeaderList(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if key != "" && val != "" {
			headers[key] = val
		}
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

func clampRatio(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envFlag(key string) bool {
	switch strings.ToLower(envString(key)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
