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
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/hartwell/rsvpd/internal/telemetry"
)

type SlogPublicTestSuite struct {
	suite.Suite

	ctx context.Context
}

func (s *SlogPublicTestSuite) SetupTest() {
	s.ctx = context.Background()

	otel.SetTracerProvider(sdktrace.NewTracerProvider())
}

func (s *SlogPublicTestSuite) TestNewTraceHandler() {
	tests := []struct {
		name         string
		setupCtx     func() context.Context
		validateFunc func(output string)
	}{
		{
			name: "when active span adds trace_id and span_id",
			setupCtx: func() context.Context {
				ctx, _ := otel.Tracer("test").Start(s.ctx, "rsvp-update")

				return ctx
			},
			validateFunc: func(output string) {
				s.Contains(output, "trace_id=")
				s.Contains(output, "span_id=")
			},
		},
		{
			name: "when no active span does not add trace fields",
			setupCtx: func() context.Context {
				return context.Background()
			},
			validateFunc: func(output string) {
				s.NotContains(output, "trace_id=")
				s.NotContains(output, "span_id=")
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			var buf bytes.Buffer
			inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			logger := slog.New(telemetry.NewTraceHandler(inner))

			logger.InfoContext(tc.setupCtx(), "queued notification")

			tc.validateFunc(buf.String())
		})
	}
}

func (s *SlogPublicTestSuite) TestTraceHandlerWithAttrs() {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	handler := telemetry.NewTraceHandler(inner)

	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("component", "worker")}))
	ctx, _ := otel.Tracer("test").Start(s.ctx, "delivery")
	logger.InfoContext(ctx, "sent")

	s.Contains(buf.String(), "component=worker")
	s.Contains(buf.String(), "trace_id=")
}

func (s *SlogPublicTestSuite) TestTraceHandlerWithGroup() {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	handler := telemetry.NewTraceHandler(inner)

	logger := slog.New(handler.WithGroup("delivery"))
	ctx, _ := otel.Tracer("test").Start(s.ctx, "delivery")
	logger.InfoContext(ctx, "sent", slog.String("template", "confirmation"))

	s.Contains(buf.String(), "delivery.template=confirmation")
	s.Contains(buf.String(), "trace_id=")
}

func TestSlogPublicTestSuite(t *testing.T) {
	suite.Run(t, new(SlogPublicTestSuite))
}
