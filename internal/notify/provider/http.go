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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ensure HTTPProvider implements Provider at compile time.
var _ Provider = (*HTTPProvider)(nil)

// Options configures the HTTPProvider.
type Options struct {
	// URL is the transactional email API endpoint.
	URL string
	// Token authenticates against the API.
	Token string
	// FromAddress is the sender address.
	FromAddress string
	// FromName is the sender display name.
	FromName string
	// Timeout bounds each send request.
	Timeout time.Duration
}

// HTTPProvider posts messages as JSON to a transactional email API.
// Timeouts and 5xx responses are transient; 4xx responses are permanent.
type HTTPProvider struct {
	opts   Options
	client *http.Client
}

// NewHTTPProvider creates a new HTTPProvider.
func NewHTTPProvider(
	opts Options,
) *HTTPProvider {
	return &HTTPProvider{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

// sendRequest is the API wire format.
type sendRequest struct {
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name,omitempty"`
	ToAddress   string `json:"to_address"`
	ToName      string `json:"to_name,omitempty"`
	Subject     string `json:"subject"`
	HTMLBody    string `json:"html_body"`
}

// Send implements the Provider interface.
func (p *HTTPProvider) Send(
	ctx context.Context,
	msg Message,
) error {
	body, err := json.Marshal(sendRequest{
		FromAddress: p.opts.FromAddress,
		FromName:    p.opts.FromName,
		ToAddress:   msg.To,
		ToName:      msg.ToName,
		Subject:     msg.Subject,
		HTMLBody:    msg.HTMLBody,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.opts.Token)

	resp, err := p.client.Do(req)
	if err != nil {
		// network errors and timeouts are worth retrying
		return Transientf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode >= http.StatusInternalServerError,
		resp.StatusCode == http.StatusTooManyRequests:
		return Transientf("send rejected: status %d", resp.StatusCode)
	default:
		return fmt.Errorf("send rejected: status %d", resp.StatusCode)
	}
}
