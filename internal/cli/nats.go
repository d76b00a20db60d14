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

package cli

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/hartwell/rsvpd/internal/config"
)

// NATSURL builds the client connection URL from connection config.
func NATSURL(
	connCfg config.NATSConnection,
) string {
	return fmt.Sprintf("nats://%s:%d", connCfg.Host, connCfg.Port)
}

// BuildNATSAuthOptions maps auth config to NATS connection options.
func BuildNATSAuthOptions(
	authCfg config.NATSAuth,
) []nats.Option {
	switch authCfg.Type {
	case "user_pass":
		return []nats.Option{nats.UserInfo(authCfg.Username, authCfg.Password)}
	case "nkey":
		opt, err := nats.NkeyOptionFromSeed(authCfg.NKeyFile)
		if err != nil {
			// Surface the bad seed file on connect rather than here.
			return []nats.Option{func(*nats.Options) error { return err }}
		}
		return []nats.Option{opt}
	}

	return nil
}

// ParseJetstreamStorageType maps "memory"/"file" strings to jetstream.StorageType.
func ParseJetstreamStorageType(
	s string,
) jetstream.StorageType {
	if s == "memory" {
		return jetstream.MemoryStorage
	}

	return jetstream.FileStorage
}

// BuildKVConfig builds a jetstream.KeyValueConfig from KV config values.
func BuildKVConfig(
	kvCfg config.NATSKV,
	defaultBucket string,
) jetstream.KeyValueConfig {
	bucket := kvCfg.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}
	ttl, _ := time.ParseDuration(kvCfg.TTL)

	return jetstream.KeyValueConfig{
		Bucket:   bucket,
		TTL:      ttl,
		MaxBytes: kvCfg.MaxBytes,
		Storage:  ParseJetstreamStorageType(kvCfg.Storage),
		Replicas: kvCfg.Replicas,
	}
}

// BuildAuditKVConfig builds a jetstream.KeyValueConfig from audit config values.
func BuildAuditKVConfig(
	auditCfg config.Audit,
	defaultBucket string,
) jetstream.KeyValueConfig {
	bucket := auditCfg.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}
	ttl, _ := time.ParseDuration(auditCfg.TTL)

	return jetstream.KeyValueConfig{
		Bucket:   bucket,
		TTL:      ttl,
		MaxBytes: auditCfg.MaxBytes,
		Storage:  ParseJetstreamStorageType(auditCfg.Storage),
		Replicas: auditCfg.Replicas,
	}
}
