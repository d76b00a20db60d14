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

// Package messaging wraps the NATS JetStream client used for the change
// feed, the notification queue, and the KV buckets.
package messaging

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client defines the messaging operations the service needs.
type Client interface {
	// Connect establishes the NATS connection and JetStream context.
	Connect() error
	// Close drains and closes the connection.
	Close()

	// EnsureStream creates or updates a JetStream stream.
	EnsureStream(ctx context.Context, cfg jetstream.StreamConfig) error
	// EnsureConsumer creates or updates a durable consumer on a stream.
	EnsureConsumer(
		ctx context.Context,
		stream string,
		cfg jetstream.ConsumerConfig,
	) (jetstream.Consumer, error)
	// EnsureKeyValue creates or updates a KV bucket.
	EnsureKeyValue(
		ctx context.Context,
		cfg jetstream.KeyValueConfig,
	) (jetstream.KeyValue, error)

	// Publish sends a message to a JetStream subject with optional headers.
	Publish(
		ctx context.Context,
		subject string,
		data []byte,
		header nats.Header,
	) error

	// Consume attaches a handler to a durable consumer. The returned
	// ConsumeContext stops consumption when stopped.
	Consume(
		ctx context.Context,
		stream string,
		consumer string,
		handler jetstream.MessageHandler,
	) (jetstream.ConsumeContext, error)
}

// Ensure NATSClient implements Client.
var _ Client = (*NATSClient)(nil)
