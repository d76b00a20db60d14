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

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/hartwell/rsvpd/internal/api"
	"github.com/hartwell/rsvpd/internal/cli"
	"github.com/hartwell/rsvpd/internal/telemetry"
	"github.com/hartwell/rsvpd/internal/throttle"
)

// serverStartCmd represents the serverStart command.
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the RSVP API server",
	Long: `Start the RSVP API server.

Serves guest and admin authentication, RSVP reads and writes, and the
security audit query surface. Guest record changes are published to the
mutation stream for the notification pipeline.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		log := logger.With("component", "api")

		shutdownTracer, err := telemetry.InitTracer(
			ctx,
			"rsvpd",
			appConfig.Telemetry.Tracing,
		)
		if err != nil {
			cli.LogFatal(log, "failed to initialize tracer", err)
		}

		metricsHandler, _, shutdownMeter, err := telemetry.InitMeter(
			appConfig.Telemetry.Metrics,
		)
		if err != nil {
			cli.LogFatal(log, "failed to initialize meter", err)
		}

		nc := connectMessaging(log)
		ensureStreams(ctx, log, nc)

		guests := buildGuestStore(ctx, log, nc)
		recorder, auditStore := buildRecorder(ctx, log, nc)
		tokens := buildTokenService(log)

		limiter := throttle.New(log, throttle.Options{
			Window:      parseDuration(log, "throttle.window", appConfig.Throttle.Window),
			MaxFailures: appConfig.Throttle.MaxFailures,
			Lockout:     parseDuration(log, "throttle.lockout_duration", appConfig.Throttle.LockoutDuration),
		})

		sweeper := cron.New()
		if _, err := sweeper.AddFunc(appConfig.Throttle.SweepSchedule, limiter.Sweep); err != nil {
			cli.LogFatal(log, "invalid sweep schedule", err,
				"schedule", appConfig.Throttle.SweepSchedule)
		}
		sweeper.Start()

		server := api.New(
			appConfig,
			log,
			api.WithTokenService(tokens),
			api.WithGuestStore(guests),
			api.WithThrottle(limiter),
			api.WithAudit(recorder, auditStore),
			api.WithMetricsHandler(metricsHandler),
		)

		server.Start()
		cli.RunServer(ctx, server, func() {
			<-sweeper.Stop().Done()
			nc.Close()
			_ = shutdownMeter(context.Background())
			_ = shutdownTracer(context.Background())
		})
	},
}

func init() {
	serverCmd.AddCommand(serverStartCmd)
}
