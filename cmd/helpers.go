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

package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/hartwell/rsvpd/internal/audit"
	"github.com/hartwell/rsvpd/internal/authtoken"
	"github.com/hartwell/rsvpd/internal/cli"
	"github.com/hartwell/rsvpd/internal/config"
	"github.com/hartwell/rsvpd/internal/messaging"
	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/store"
)

// Default infrastructure names used when the config leaves them unset.
const (
	defaultGuestsBucket       = "rsvp-guests"
	defaultSuppressionsBucket = "rsvp-suppressions"
	defaultAuditBucket        = "rsvp-audit"
)

// parseDuration parses a config duration string, exiting on a bad value.
func parseDuration(
	log *slog.Logger,
	field string,
	value string,
) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		cli.LogFatal(log, "invalid duration in config", err, "field", field, "value", value)
	}

	return d
}

// connectMessaging creates and connects the JetStream client.
func connectMessaging(
	log *slog.Logger,
) *messaging.NATSClient {
	connCfg := appConfig.NATS.Connection

	nc := messaging.New(
		log,
		cli.NATSURL(connCfg),
		connCfg.ClientName,
		cli.BuildNATSAuthOptions(connCfg.Auth)...,
	)

	if err := nc.Connect(); err != nil {
		cli.LogFatal(log, "failed to connect to NATS", err)
	}

	return nc
}

// ensureKV creates or updates a KV bucket, exiting on failure.
func ensureKV(
	ctx context.Context,
	log *slog.Logger,
	nc messaging.Client,
	cfg jetstream.KeyValueConfig,
) jetstream.KeyValue {
	kv, err := nc.EnsureKeyValue(ctx, cfg)
	if err != nil {
		cli.LogFatal(log, "failed to ensure KV bucket", err, "bucket", cfg.Bucket)
	}

	return kv
}

// buildStreamConfig maps stream config onto jetstream.StreamConfig with
// fallback name and subjects.
func buildStreamConfig(
	streamCfg config.NATSStream,
	defaultName string,
	defaultSubjects string,
) jetstream.StreamConfig {
	name := streamCfg.Name
	if name == "" {
		name = defaultName
	}
	subjects := streamCfg.Subjects
	if subjects == "" {
		subjects = defaultSubjects
	}
	maxAge, _ := time.ParseDuration(streamCfg.MaxAge)

	return jetstream.StreamConfig{
		Name:     name,
		Subjects: []string{subjects},
		MaxAge:   maxAge,
		MaxMsgs:  streamCfg.MaxMsgs,
		Storage:  cli.ParseJetstreamStorageType(streamCfg.Storage),
		Replicas: streamCfg.Replicas,
	}
}

// ensureStreams provisions the mutation, notify, and dead-letter streams.
func ensureStreams(
	ctx context.Context,
	log *slog.Logger,
	nc messaging.Client,
) {
	streams := []jetstream.StreamConfig{
		buildStreamConfig(
			appConfig.NATS.Mutations,
			notify.StreamMutations,
			store.SubjectGuestMutations,
		),
		buildStreamConfig(
			appConfig.NATS.Notify,
			notify.StreamNotify,
			"rsvp.notify.>",
		),
		buildStreamConfig(
			appConfig.NATS.DLQ,
			notify.StreamDeadLetter,
			notify.SubjectDeadLetter,
		),
	}

	for _, cfg := range streams {
		if err := nc.EnsureStream(ctx, cfg); err != nil {
			cli.LogFatal(log, "failed to ensure stream", err, "stream", cfg.Name)
		}
	}
}

// buildTokenService constructs the RS256 token service from auth config.
func buildTokenService(
	log *slog.Logger,
) *authtoken.Token {
	authCfg := appConfig.Auth

	var keys authtoken.KeySource = authtoken.NewFileKeySource(
		appFs,
		authCfg.PrivateKeyFile,
		authCfg.PublicKeyFile,
	)
	keys = authtoken.NewCachedKeySource(
		keys,
		parseDuration(log, "auth.key_cache_ttl", authCfg.KeyCacheTTL),
	)

	return authtoken.New(log, keys, authtoken.Options{
		Issuer:     authCfg.Issuer,
		Audience:   authCfg.Audience,
		AccessTTL:  parseDuration(log, "auth.access_ttl", authCfg.AccessTTL),
		RefreshTTL: parseDuration(log, "auth.refresh_ttl", authCfg.RefreshTTL),
	})
}

// buildSuppressionStore provisions the suppression bucket and store.
func buildSuppressionStore(
	ctx context.Context,
	log *slog.Logger,
	nc messaging.Client,
) *store.SuppressionStore {
	kv := ensureKV(
		ctx, log, nc,
		cli.BuildKVConfig(appConfig.NATS.Supprs, defaultSuppressionsBucket),
	)

	return store.NewSuppressionStore(log, kv)
}

// buildGuestStore provisions the guest bucket and store. Mutations publish
// through the given client, so the mutation stream must already exist.
func buildGuestStore(
	ctx context.Context,
	log *slog.Logger,
	nc messaging.Client,
) *store.GuestStore {
	kv := ensureKV(
		ctx, log, nc,
		cli.BuildKVConfig(appConfig.NATS.Guests, defaultGuestsBucket),
	)

	return store.NewGuestStore(log, kv, nc)
}

// buildRecorder provisions the audit bucket, store, and recorder. The
// alerter is a webhook when configured, otherwise a log alerter.
func buildRecorder(
	ctx context.Context,
	log *slog.Logger,
	nc messaging.Client,
) (*audit.Recorder, audit.Store) {
	kv := ensureKV(
		ctx, log, nc,
		cli.BuildAuditKVConfig(appConfig.Audit, defaultAuditBucket),
	)
	auditStore := audit.NewKVStore(log, kv)

	var alerter audit.Alerter = audit.NewLogAlerter(log)
	if url := appConfig.Audit.AlertWebhookURL; url != "" {
		alerter = audit.NewWebhookAlerter(url, 10*time.Second)
	}

	return audit.NewRecorder(log, auditStore, alerter), auditStore
}
