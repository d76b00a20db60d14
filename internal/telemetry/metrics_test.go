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

package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/hartwell/rsvpd/internal/config"
)

type MetricsTestSuite struct {
	suite.Suite
}

func (s *MetricsTestSuite) TestInitMeter() {
	tests := []struct {
		name     string
		cfg      config.MetricsConfig
		wantPath string
	}{
		{
			name:     "when path unset uses default",
			cfg:      config.MetricsConfig{},
			wantPath: DefaultMetricsPath,
		},
		{
			name:     "when path configured uses it",
			cfg:      config.MetricsConfig{Path: "/internal/metrics"},
			wantPath: "/internal/metrics",
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			handler, path, shutdown, err := InitMeter(tc.cfg)

			s.NoError(err)
			s.NotNil(handler)
			s.Equal(tc.wantPath, path)
			s.NoError(shutdown(context.Background()))
		})
	}
}

func (s *MetricsTestSuite) TestInitMeterExporterError() {
	original := newPrometheusExporter
	defer func() { newPrometheusExporter = original }()

	newPrometheusExporter = func() (sdkmetric.Reader, error) {
		return nil, errors.New("registry full")
	}

	_, _, _, err := InitMeter(config.MetricsConfig{})
	s.Error(err)
	s.Contains(err.Error(), "creating prometheus exporter")
}

func TestMetricsTestSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}
