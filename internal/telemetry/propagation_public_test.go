// Copyright (c) 2025 Jordan Hartwell

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package telemetry_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/hartwell/rsvpd/internal/telemetry"
)

type PropagationPublicTestSuite struct {
	suite.Suite

	ctx context.Context
}

func (s *PropagationPublicTestSuite) SetupTest() {
	s.ctx = context.Background()

	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})
}

func (s *PropagationPublicTestSuite) TestInjectAndExtractRoundTrip() {
	ctx, span := otel.Tracer("test").Start(s.ctx, "guest-mutation")
	defer span.End()

	header := http.Header{}
	telemetry.InjectTraceContextToHeader(ctx, header)
	s.NotEmpty(header.Get("Traceparent"))

	got := telemetry.ExtractTraceContextFromHeader(context.Background(), header)
	s.Equal(
		span.SpanContext().TraceID(),
		trace.SpanContextFromContext(got).TraceID(),
	)
}

func (s *PropagationPublicTestSuite) TestExtractNormalizesHeaderCasing() {
	ctx, span := otel.Tracer("test").Start(s.ctx, "guest-mutation")
	defer span.End()

	header := http.Header{}
	telemetry.InjectTraceContextToHeader(ctx, header)

	// JetStream hands headers back with whatever casing the publisher used.
	lowered := http.Header{}
	for k, v := range header {
		lowered[strings.ToLower(k)] = v
	}

	got := telemetry.ExtractTraceContextFromHeader(context.Background(), lowered)
	s.Equal(
		span.SpanContext().TraceID(),
		trace.SpanContextFromContext(got).TraceID(),
	)
}

func (s *PropagationPublicTestSuite) TestExtractWithoutTraceContext() {
	got := telemetry.ExtractTraceContextFromHeader(s.ctx, http.Header{})
	s.False(trace.SpanContextFromContext(got).IsValid())
}

func TestPropagationPublicTestSuite(t *testing.T) {
	suite.Run(t, new(PropagationPublicTestSuite))
}
