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

package provider

import (
	"context"
	"log/slog"
)

// ensure NopProvider implements Provider at compile time.
var _ Provider = (*NopProvider)(nil)

// NopProvider logs messages instead of sending them. Used in development
// when no email API is configured.
type NopProvider struct {
	logger *slog.Logger
}

// NewNopProvider creates a new NopProvider.
func NewNopProvider(
	logger *slog.Logger,
) *NopProvider {
	return &NopProvider{
		logger: logger,
	}
}

// Send implements the Provider interface.
func (p *NopProvider) Send(
	_ context.Context,
	msg Message,
) error {
	p.logger.Info(
		"nop provider drop",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)

	return nil
}
