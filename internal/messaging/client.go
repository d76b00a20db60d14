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

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSClient implements Client over a real NATS connection.
type NATSClient struct {
	url     string
	name    string
	logger  *slog.Logger
	connOpt []nats.Option

	conn *nats.Conn
	js   jetstream.JetStream
}

// New creates a new NATSClient. Extra connection options (auth, TLS) are
// appended to the defaults. Connect must be called before any other
// operation.
func New(
	logger *slog.Logger,
	url string,
	name string,
	opts ...nats.Option,
) *NATSClient {
	return &NATSClient{
		url:     url,
		name:    name,
		logger:  logger,
		connOpt: opts,
	}
}

// Connect establishes the NATS connection and JetStream context.
func (c *NATSClient) Connect() error {
	opts := []nats.Option{
		nats.Name(c.name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.logger.Warn(
					"nats disconnected",
					slog.String("error", err.Error()),
				)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.logger.Info(
				"nats reconnected",
				slog.String("url", nc.ConnectedUrl()),
			)
		}),
	}
	opts = append(opts, c.connOpt...)

	conn, err := nats.Connect(c.url, opts...)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("create jetstream context: %w", err)
	}

	c.conn = conn
	c.js = js

	c.logger.Info(
		"connected to nats",
		slog.String("url", conn.ConnectedUrl()),
	)

	return nil
}

// Close drains and closes the connection.
func (c *NATSClient) Close() {
	if c.conn == nil {
		return
	}

	if err := c.conn.Drain(); err != nil {
		c.logger.Warn(
			"failed to drain nats connection",
			slog.String("error", err.Error()),
		)
	}
}

// EnsureStream creates or updates a JetStream stream.
func (c *NATSClient) EnsureStream(
	ctx context.Context,
	cfg jetstream.StreamConfig,
) error {
	if _, err := c.js.CreateOrUpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("ensure stream %q: %w", cfg.Name, err)
	}

	return nil
}

// EnsureConsumer creates or updates a durable consumer on a stream.
func (c *NATSClient) EnsureConsumer(
	ctx context.Context,
	stream string,
	cfg jetstream.ConsumerConfig,
) (jetstream.Consumer, error) {
	consumer, err := c.js.CreateOrUpdateConsumer(ctx, stream, cfg)
	if err != nil {
		return nil, fmt.Errorf("ensure consumer %q on stream %q: %w", cfg.Durable, stream, err)
	}

	return consumer, nil
}

// EnsureKeyValue creates or updates a KV bucket.
func (c *NATSClient) EnsureKeyValue(
	ctx context.Context,
	cfg jetstream.KeyValueConfig,
) (jetstream.KeyValue, error) {
	kv, err := c.js.CreateOrUpdateKeyValue(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ensure kv bucket %q: %w", cfg.Bucket, err)
	}

	return kv, nil
}

// Publish sends a message to a JetStream subject with optional headers.
func (c *NATSClient) Publish(
	ctx context.Context,
	subject string,
	data []byte,
	header nats.Header,
) error {
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  header,
	}

	if _, err := c.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("publish to %q: %w", subject, err)
	}

	return nil
}

// Consume attaches a handler to a durable consumer.
func (c *NATSClient) Consume(
	ctx context.Context,
	stream string,
	consumer string,
	handler jetstream.MessageHandler,
) (jetstream.ConsumeContext, error) {
	cons, err := c.js.Consumer(ctx, stream, consumer)
	if err != nil {
		return nil, fmt.Errorf("lookup consumer %q on stream %q: %w", consumer, stream, err)
	}

	cc, err := cons.Consume(handler)
	if err != nil {
		return nil, fmt.Errorf("consume from %q: %w", consumer, err)
	}

	return cc, nil
}
