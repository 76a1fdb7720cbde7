// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials"
)

// Exporter names accepted by ExporterConfig.Type.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// ExporterConfig selects where finished spans are sent.
type ExporterConfig struct {
	// Type is one of none, stdout, otlp-http, otlp-grpc.
	Type string

	// Endpoint is host:port of the collector for the OTLP exporters.
	Endpoint string

	// Insecure disables TLS towards the collector.
	Insecure bool

	// Headers are sent with every export request.
	Headers map[string]string

	// Writer receives stdout exporter output (default: os.Stderr).
	Writer io.Writer

	// ServiceName and ServiceVersion label the exported resource.
	ServiceName    string
	ServiceVersion string
}

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

// Setup builds a tracer provider for cfg. With no exporter configured it
// returns a no-op provider, so spans cost nothing.
func Setup(ctx context.Context, cfg ExporterConfig) (trace.TracerProvider, ShutdownFunc, error) {
	nop := func(context.Context) error { return nil }

	exporter, batch, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if exporter == nil {
		return noop.NewTracerProvider(), nop, nil
	}

	name := cfg.ServiceName
	if name == "" {
		name = "folio"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("",
			semconv.ServiceName(name),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// a CLI process is short lived; the console exporter writes inline
	// and the network exporters are drained on shutdown
	processor := sdktrace.NewSimpleSpanProcessor(exporter)
	if batch {
		processor = sdktrace.NewBatchSpanProcessor(exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(processor),
	)
	return tp, tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg ExporterConfig) (sdktrace.SpanExporter, bool, error) {
	switch cfg.Type {
	case "", ExporterNone:
		return nil, false, nil

	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, false, fmt.Errorf("failed to create console exporter: %w", err)
		}
		return exp, false, nil

	case ExporterOTLPHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		} else {
			opts = append(opts, otlptracehttp.WithTLSClientConfig(defaultTLS()))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		return exp, true, nil

	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(defaultTLS())))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}
		return exp, true, nil

	default:
		return nil, false, fmt.Errorf("unknown exporter type: %s", cfg.Type)
	}
}

func defaultTLS() *tls.Config {
	return &tls.Config{MinVersion: tls.VersionTLS12}
}
