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

package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// InjectTraceContextToHeader writes the current span's trace context into
// header. nats.Header converts to http.Header, so publishers use this to
// carry the trace across the stream.
func InjectTraceContextToHeader(
	ctx context.Context,
	header http.Header,
) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
}

// ExtractTraceContextFromHeader returns ctx extended with any trace context
// found in header. JetStream delivers header keys in whatever casing the
// publisher used, so keys are canonicalized first; http.Header.Get misses
// a lowercase "traceparent" otherwise.
func ExtractTraceContextFromHeader(
	ctx context.Context,
	header http.Header,
) context.Context {
	return otel.GetTextMapPropagator().Extract(
		ctx,
		propagation.HeaderCarrier(canonicalized(header)),
	)
}

func canonicalized(
	header http.Header,
) http.Header {
	out := make(http.Header, len(header))
	for k, v := range header {
		out[http.CanonicalHeaderKey(k)] = v
	}

	return out
}
