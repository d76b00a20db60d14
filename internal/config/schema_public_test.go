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

package config_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hartwell/rsvpd/internal/config"
)

type ConfigPublicTestSuite struct {
	suite.Suite
}

func (s *ConfigPublicTestSuite) validConfig() config.Config {
	return config.Config{
		Event: config.Event{ID: "hartwell-2026"},
		Auth: config.Auth{
			PrivateKeyFile: "/etc/rsvpd/keys/signing.pem",
			PublicKeyFile:  "/etc/rsvpd/keys/signing.pub.pem",
		},
	}
}

func (s *ConfigPublicTestSuite) TestValidate() {
	tests := []struct {
		name        string
		mutate      func(*config.Config)
		expectError bool
		errContains string
	}{
		{
			name:        "valid config",
			mutate:      func(_ *config.Config) {},
			expectError: false,
		},
		{
			name: "missing event id",
			mutate: func(c *config.Config) {
				c.Event.ID = ""
			},
			expectError: true,
			errContains: "ID",
		},
		{
			name: "missing private key file",
			mutate: func(c *config.Config) {
				c.Auth.PrivateKeyFile = ""
			},
			expectError: true,
			errContains: "PrivateKeyFile",
		},
		{
			name: "missing public key file",
			mutate: func(c *config.Config) {
				c.Auth.PublicKeyFile = ""
			},
			expectError: true,
			errContains: "PublicKeyFile",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			cfg := s.validConfig()
			tt.mutate(&cfg)

			err := config.Validate(&cfg)

			if tt.expectError {
				s.Error(err)
				s.Contains(err.Error(), tt.errContains)
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *ConfigPublicTestSuite) TestValidateAppliesDefaults() {
	cfg := s.validConfig()

	err := config.Validate(&cfg)

	s.NoError(err)
	s.Equal(config.DefaultIssuer, cfg.Auth.Issuer)
	s.Equal(config.DefaultAccessTTL, cfg.Auth.AccessTTL)
	s.Equal(config.DefaultRefreshTTL, cfg.Auth.RefreshTTL)
	s.Equal(config.DefaultKeyCacheTTL, cfg.Auth.KeyCacheTTL)
	s.Equal(config.DefaultMaxFailures, cfg.Throttle.MaxFailures)
	s.Equal(config.DefaultThrottleWindow, cfg.Throttle.Window)
	s.Equal(config.DefaultLockoutDuration, cfg.Throttle.LockoutDuration)
	s.Equal(config.DefaultSendRate, cfg.Notify.Worker.SendRate)
	s.Equal(config.DefaultMaxRetries, cfg.Notify.Worker.MaxRetries)
	s.Equal(config.DefaultBackoffBase, cfg.Notify.Worker.BackoffBase)
	s.Equal(config.DefaultBackoffCap, cfg.Notify.Worker.BackoffCap)
}

func TestConfigPublicTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigPublicTestSuite))
}
