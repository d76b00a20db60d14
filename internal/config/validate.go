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

package config

import (
	"errors"

	"github.com/hartwell/rsvpd/internal/validation"
)

// Defaults applied when the corresponding config value is unset.
const (
	DefaultIssuer          = "rsvpd"
	DefaultAudience        = "rsvpd-api"
	DefaultKeyCacheTTL     = "5m"
	DefaultAccessTTL       = "1h"
	DefaultRefreshTTL      = "168h"
	DefaultThrottleWindow  = "5m"
	DefaultMaxFailures     = 5
	DefaultLockoutDuration = "15m"
	DefaultSweepSchedule   = "@every 1m"
	DefaultSendRate        = 14.0
	DefaultMaxRetries      = 5
	DefaultBackoffBase     = "30s"
	DefaultBackoffCap      = "10m"
)

// Validate checks required config fields and applies defaults in place.
func Validate(
	cfg *Config,
) error {
	applyDefaults(cfg)

	if msg, ok := validation.Struct(cfg); !ok {
		return errors.New(msg)
	}

	return nil
}

// applyDefaults fills zero values with documented defaults.
func applyDefaults(
	cfg *Config,
) {
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = DefaultIssuer
	}
	if cfg.Auth.Audience == "" {
		cfg.Auth.Audience = DefaultAudience
	}
	if cfg.Auth.KeyCacheTTL == "" {
		cfg.Auth.KeyCacheTTL = DefaultKeyCacheTTL
	}
	if cfg.Auth.AccessTTL == "" {
		cfg.Auth.AccessTTL = DefaultAccessTTL
	}
	if cfg.Auth.RefreshTTL == "" {
		cfg.Auth.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Throttle.Window == "" {
		cfg.Throttle.Window = DefaultThrottleWindow
	}
	if cfg.Throttle.MaxFailures == 0 {
		cfg.Throttle.MaxFailures = DefaultMaxFailures
	}
	if cfg.Throttle.LockoutDuration == "" {
		cfg.Throttle.LockoutDuration = DefaultLockoutDuration
	}
	if cfg.Throttle.SweepSchedule == "" {
		cfg.Throttle.SweepSchedule = DefaultSweepSchedule
	}
	if cfg.Notify.Worker.SendRate == 0 {
		cfg.Notify.Worker.SendRate = DefaultSendRate
	}
	if cfg.Notify.Worker.MaxRetries == 0 {
		cfg.Notify.Worker.MaxRetries = DefaultMaxRetries
	}
	if cfg.Notify.Worker.BackoffBase == "" {
		cfg.Notify.Worker.BackoffBase = DefaultBackoffBase
	}
	if cfg.Notify.Worker.BackoffCap == "" {
		cfg.Notify.Worker.BackoffCap = DefaultBackoffCap
	}
}
