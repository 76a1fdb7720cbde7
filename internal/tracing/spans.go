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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName is the tracer name used for folio spans.
const instrumentationName = "github.com/tombee/folio"

// Span attribute keys.
const (
	AttrMethod      = attribute.Key("http.request.method")
	AttrPath        = attribute.Key("folio.path")
	AttrStatus      = attribute.Key("http.response.status_code")
	AttrGuestRetry  = attribute.Key("folio.guest_retry")
	AttrAuthorized  = attribute.Key("folio.authorized")
	AttrCorrelation = attribute.Key("folio.correlation_id")
)

// Tracer returns the folio tracer from the given provider, or from the
// global provider when tp is nil.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentationName)
}

// StartSpan starts a client span named name carrying the method and path.
func StartSpan(ctx context.Context, tracer trace.Tracer, name, method, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrMethod.String(method), AttrPath.String(path)),
	)
}

// EndSpan records the final status and error on span and ends it.
func EndSpan(span trace.Span, status int, err error) {
	if status > 0 {
		span.SetAttributes(AttrStatus.Int(status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
