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

	"github.com/spf13/cobra"

	"github.com/hartwell/rsvpd/internal/cli"
	"github.com/hartwell/rsvpd/internal/notify/enricher"
	"github.com/hartwell/rsvpd/internal/telemetry"
)

// notifyEnricherStartCmd represents the notifyEnricherStart command.
var notifyEnricherStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the change-feed enricher",
	Long: `Start the change-feed enricher.

Consumes guest mutation events and turns RSVP changes into notification
envelopes, skipping suppressed recipients.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		log := logger.With("component", "notify-enricher")

		shutdownTracer, err := telemetry.InitTracer(
			ctx,
			"rsvpd-notify-enricher",
			appConfig.Telemetry.Tracing,
		)
		if err != nil {
			cli.LogFatal(log, "failed to initialize tracer", err)
		}

		nc := connectMessaging(log)
		ensureStreams(ctx, log, nc)

		suppressions := buildSuppressionStore(ctx, log, nc)

		e := enricher.New(log, suppressions, nc)

		server := enricher.NewServer(log, nc, e, appConfig.Notify.Enricher)
		if err := server.Setup(ctx); err != nil {
			cli.LogFatal(log, "failed to set up enricher consumer", err)
		}

		server.Start()
		cli.RunServer(ctx, server, func() {
			nc.Close()
			_ = shutdownTracer(context.Background())
		})
	},
}

func init() {
	notifyEnricherCmd.AddCommand(notifyEnricherStartCmd)
}
