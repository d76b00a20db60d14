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

package cli_test

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/suite"

	"github.com/hartwell/rsvpd/internal/cli"
	"github.com/hartwell/rsvpd/internal/config"
)

type NATSPublicTestSuite struct {
	suite.Suite
}

func (s *NATSPublicTestSuite) TestParseJetstreamStorageType() {
	s.Equal(jetstream.MemoryStorage, cli.ParseJetstreamStorageType("memory"))
	s.Equal(jetstream.FileStorage, cli.ParseJetstreamStorageType("file"))
	s.Equal(jetstream.FileStorage, cli.ParseJetstreamStorageType(""))
}

func (s *NATSPublicTestSuite) TestBuildKVConfig() {
	cfg := cli.BuildKVConfig(config.NATSKV{
		Bucket:  "guests",
		TTL:     "1h",
		Storage: "memory",
	}, "fallback")

	s.Equal("guests", cfg.Bucket)
	s.Equal(time.Hour, cfg.TTL)
	s.Equal(jetstream.MemoryStorage, cfg.Storage)
}

func (s *NATSPublicTestSuite) TestBuildKVConfigDefaultBucket() {
	cfg := cli.BuildKVConfig(config.NATSKV{}, "suppressions")

	s.Equal("suppressions", cfg.Bucket)
	s.Zero(cfg.TTL)
}

func (s *NATSPublicTestSuite) TestBuildAuditKVConfig() {
	cfg := cli.BuildAuditKVConfig(config.Audit{
		TTL:     "2160h",
		Storage: "file",
	}, "security-events")

	s.Equal("security-events", cfg.Bucket)
	s.Equal(2160*time.Hour, cfg.TTL)
	s.Equal(jetstream.FileStorage, cfg.Storage)
}

func TestNATSPublicTestSuite(t *testing.T) {
	suite.Run(t, new(NATSPublicTestSuite))
}
