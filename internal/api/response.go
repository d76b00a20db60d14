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

package api

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
)

// envelope is the JSON shape of every API response. Error text stays
// generic; the errorId correlates with server-side logs and traces.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	ErrorID string `json:"errorId,omitempty"`
}

// respondOK writes a success envelope.
func respondOK(
	c echo.Context,
	status int,
	data any,
) error {
	return c.JSON(status, envelope{
		Success: true,
		Data:    data,
	})
}

// respondError writes an error envelope carrying the request's trace id so
// operators can find the detail the client never sees.
func respondError(
	c echo.Context,
	status int,
	message string,
) error {
	return c.JSON(status, envelope{
		Success: false,
		Error:   message,
		ErrorID: errorID(c),
	})
}

// errorID derives the redacted correlation id for a request: the trace id
// when sampled, else the echo request id.
func errorID(
	c echo.Context,
) string {
	span := trace.SpanFromContext(c.Request().Context())
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return c.Response().Header().Get(echo.HeaderXRequestID)
}
