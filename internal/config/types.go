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

// Package config contains the application configuration schema.
package config

// Config represents the root structure of the YAML configuration file.
// This struct is used to unmarshal configuration data from Viper.
type Config struct {
	API       API       `mapstructure:"api"       mask:"struct"`
	Event     Event     `mapstructure:"event"`
	Auth      Auth      `mapstructure:"auth"      mask:"struct"`
	Throttle  Throttle  `mapstructure:"throttle"`
	Audit     Audit     `mapstructure:"audit"`
	NATS      NATS      `mapstructure:"nats"      mask:"struct"`
	Notify    Notify    `mapstructure:"notify"    mask:"struct"`
	Telemetry Telemetry `mapstructure:"telemetry"`
	// Debug enable or disable debug option set from CLI.
	Debug bool `mapstructure:"debug"`
}

// Event identifies the wedding event this deployment serves. The event ID is
// the tenant claim stamped into every issued token.
type Event struct {
	// ID is the tenant identifier (e.g., "hartwell-2026").
	ID string `mapstructure:"id" validate:"required"`
	// Name is a display name used in notification templates.
	Name string `mapstructure:"name"`
}

// Auth configuration for token issuance and verification.
type Auth struct {
	// Issuer expected in every token.
	Issuer string `mapstructure:"issuer"`
	// Audience expected in every token.
	Audience string `mapstructure:"audience"`
	// PrivateKeyFile is the path to the RSA private key PEM used for signing.
	PrivateKeyFile string `mapstructure:"private_key_file" validate:"required"`
	// PublicKeyFile is the path to the RSA public key PEM used for verification.
	PublicKeyFile string `mapstructure:"public_key_file" validate:"required"`
	// KeyCacheTTL bounds how long key material is cached before re-reading
	// the key source (tolerates rotation within the TTL).
	KeyCacheTTL string `mapstructure:"key_cache_ttl"` // e.g. "5m"
	// AccessTTL is the access token lifetime.
	AccessTTL string `mapstructure:"access_ttl"` // e.g. "1h"
	// RefreshTTL is the refresh token lifetime.
	RefreshTTL string `mapstructure:"refresh_ttl"` // e.g. "168h"
	// Admins are the admin console credentials.
	Admins []AdminCredential `mapstructure:"admins" mask:"struct"`
}

// AdminCredential is a single admin login.
type AdminCredential struct {
	// Email is the admin identity.
	Email string `mapstructure:"email"`
	// Password for the admin console login.
	Password string `mapstructure:"password" mask:"password"`
}

// Throttle configuration for the abuse limiter.
type Throttle struct {
	// Window is the sliding window within which failures are counted.
	Window string `mapstructure:"window"` // e.g. "5m"
	// MaxFailures within the window before lockout.
	MaxFailures int `mapstructure:"max_failures"`
	// LockoutDuration after the failure threshold is reached.
	LockoutDuration string `mapstructure:"lockout_duration"` // e.g. "15m"
	// SweepSchedule is a cron spec for evicting expired counters.
	SweepSchedule string `mapstructure:"sweep_schedule"` // e.g. "@every 1m"
}

// Audit configuration for the security event log KV bucket.
type Audit struct {
	// Bucket is the KV bucket name for security events.
	Bucket   string `mapstructure:"bucket"`
	TTL      string `mapstructure:"ttl"` // e.g. "2160h" (90 days)
	MaxBytes int64  `mapstructure:"max_bytes"`
	Storage  string `mapstructure:"storage"` // "file" or "memory"
	Replicas int    `mapstructure:"replicas"`
	// AlertWebhookURL receives high-severity events; empty disables webhooks.
	AlertWebhookURL string `mapstructure:"alert_webhook_url"`
}

// NATS configuration settings.
type NATS struct {
	Server     NATSServer     `mapstructure:"server,omitempty"`
	Connection NATSConnection `mapstructure:"connection,omitempty" mask:"struct"`
	Mutations  NATSStream     `mapstructure:"mutations,omitempty"`
	Notify     NATSStream     `mapstructure:"notify,omitempty"`
	DLQ        NATSStream     `mapstructure:"dlq,omitempty"`
	Guests     NATSKV         `mapstructure:"guests,omitempty"`
	Supprs     NATSKV         `mapstructure:"suppressions,omitempty"`
}

// NATSServer configuration settings for the embedded NATS server.
type NATSServer struct {
	// Host the server will bind to.
	Host string `mapstructure:"host"`
	// Port the server will bind to.
	Port int `mapstructure:"port"`
	// StoreDir the directory for JetStream file storage.
	StoreDir string `mapstructure:"store_dir"`
}

// NATSConnection is a reusable NATS connection configuration block.
type NATSConnection struct {
	// Host the NATS server hostname.
	Host string `mapstructure:"host"`
	// Port the NATS server port.
	Port int `mapstructure:"port"`
	// ClientName the NATS client name for identification.
	ClientName string `mapstructure:"client_name"`
	// Auth holds client-side authentication configuration.
	Auth NATSAuth `mapstructure:"auth,omitempty" mask:"struct"`
}

// NATSAuth holds client-side authentication settings for connecting to NATS.
type NATSAuth struct {
	// Type is the auth method: "none", "user_pass", or "nkey".
	Type string `mapstructure:"type"`
	// Username for user_pass auth.
	Username string `mapstructure:"username"`
	// Password for user_pass auth.
	Password string `mapstructure:"password"  mask:"password"`
	// NKeyFile path to the NKey seed file for nkey auth.
	NKeyFile string `mapstructure:"nkey_file"`
}

// NATSStream configuration for JetStream stream settings.
type NATSStream struct {
	// Name is the JetStream stream name.
	Name string `mapstructure:"name"`
	// Subjects is the subject filter for the stream.
	Subjects string `mapstructure:"subjects"`
	MaxAge   string `mapstructure:"max_age"` // e.g. "24h", "168h"
	MaxMsgs  int64  `mapstructure:"max_msgs"`
	Storage  string `mapstructure:"storage"` // "file" or "memory"
	Replicas int    `mapstructure:"replicas"`
}

// NATSKV configuration for KeyValue bucket settings.
type NATSKV struct {
	// Bucket is the KV bucket name.
	Bucket   string `mapstructure:"bucket"`
	TTL      string `mapstructure:"ttl"` // empty for no expiry
	MaxBytes int64  `mapstructure:"max_bytes"`
	Storage  string `mapstructure:"storage"` // "file" or "memory"
	Replicas int    `mapstructure:"replicas"`
}

// Notify configuration for the notification pipeline.
type Notify struct {
	Worker   NotifyWorker   `mapstructure:"worker,omitempty"`
	Enricher NotifyEnricher `mapstructure:"enricher,omitempty"`
	Provider NotifyProvider `mapstructure:"provider,omitempty" mask:"struct"`
	// TemplateDir optionally overrides the built-in email templates.
	TemplateDir string `mapstructure:"template_dir"`
}

// NotifyWorker configuration for the delivery worker.
type NotifyWorker struct {
	// Consumer is the durable JetStream consumer name.
	Consumer string `mapstructure:"consumer"`
	// AckWait is the time to wait for an ACK before redelivering.
	AckWait string `mapstructure:"ack_wait"` // e.g. "60s"
	// MaxAckPending is the maximum outstanding unacknowledged messages.
	MaxAckPending int `mapstructure:"max_ack_pending"`
	// SendRate is the maximum provider sends per second.
	SendRate float64 `mapstructure:"send_rate"`
	// MaxRetries before an envelope is dead-lettered.
	MaxRetries int `mapstructure:"max_retries"`
	// BackoffBase is the base delay for exponential retry backoff.
	BackoffBase string `mapstructure:"backoff_base"` // e.g. "30s"
	// BackoffCap caps the computed retry delay.
	BackoffCap string `mapstructure:"backoff_cap"` // e.g. "10m"
}

// NotifyEnricher configuration for the change-feed consumer.
type NotifyEnricher struct {
	// Consumer is the durable JetStream consumer name.
	Consumer string `mapstructure:"consumer"`
	// AckWait is the time to wait for an ACK before redelivering.
	AckWait string `mapstructure:"ack_wait"`
	// MaxAckPending is the maximum outstanding unacknowledged messages.
	MaxAckPending int `mapstructure:"max_ack_pending"`
}

// NotifyProvider configuration for the external delivery provider.
type NotifyProvider struct {
	// Kind selects the provider implementation: "http" or "nop".
	Kind string `mapstructure:"kind"`
	// URL is the transactional email API endpoint.
	URL string `mapstructure:"url"`
	// Token authenticates against the provider API.
	Token string `mapstructure:"token" mask:"password"`
	// Timeout for a single send call.
	Timeout string `mapstructure:"timeout"` // e.g. "10s"
	// FromAddress is the sender address on outbound mail.
	FromAddress string `mapstructure:"from_address"`
	// FromName is the sender display name on outbound mail.
	FromName string `mapstructure:"from_name"`
}

// Telemetry configuration settings.
type Telemetry struct {
	Tracing TracingConfig `mapstructure:"tracing,omitempty"`
	Metrics MetricsConfig `mapstructure:"metrics,omitempty"`
}

// MetricsConfig configuration settings for Prometheus metrics.
type MetricsConfig struct {
	// Path is the HTTP path for the Prometheus scrape endpoint.
	// Defaults to "/metrics" when empty.
	Path string `mapstructure:"path"`
}

// TracingConfig configuration settings for distributed tracing.
type TracingConfig struct {
	// Enabled enables or disables tracing.
	Enabled bool `mapstructure:"enabled"`
	// Exporter selects the trace exporter: "stdout" or "otlp".
	Exporter string `mapstructure:"exporter"`
	// OTLPEndpoint is the gRPC endpoint for the OTLP exporter (e.g., "localhost:4317").
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// API configuration settings.
type API struct {
	Server Server `mapstructure:"server" mask:"struct"`
}

// Server configuration settings.
type Server struct {
	// Port the server will bind to.
	Port int `mapstructure:"port"`
	// CORS Cross-Origin Resource Sharing settings for the server.
	CORS CORS `mapstructure:"cors"`
}

// CORS represents the CORS (Cross-Origin Resource Sharing) settings.
type CORS struct {
	// List of origins allowed to access the server (e.g., "https://hartwell.wedding").
	AllowOrigins []string `mapstructure:"allow_origins,omitempty"`
}
