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

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/hartwell/rsvpd/internal/cli"
	"github.com/hartwell/rsvpd/internal/notify/provider"
	"github.com/hartwell/rsvpd/internal/notify/template"
	"github.com/hartwell/rsvpd/internal/notify/worker"
	"github.com/hartwell/rsvpd/internal/telemetry"
)

// notifyWorkerStartCmd represents the notifyWorkerStart command.
var notifyWorkerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the notification delivery worker",
	Long: `Start the notification delivery worker.

Consumes notification envelopes, renders templates, and delivers mail
through the configured provider at a paced send rate. Transient failures
are retried with exponential backoff; exhausted envelopes go to the
dead-letter stream.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		log := logger.With("component", "notify-worker")

		shutdownTracer, err := telemetry.InitTracer(
			ctx,
			"rsvpd-notify-worker",
			appConfig.Telemetry.Tracing,
		)
		if err != nil {
			cli.LogFatal(log, "failed to initialize tracer", err)
		}

		nc := connectMessaging(log)
		ensureStreams(ctx, log, nc)

		suppressions := buildSuppressionStore(ctx, log, nc)

		renderer, err := template.NewRenderer(
			appFs,
			appConfig.Notify.TemplateDir,
			appConfig.Event.Name,
		)
		if err != nil {
			cli.LogFatal(log, "failed to load templates", err)
		}

		pacer := rate.NewLimiter(rate.Limit(appConfig.Notify.Worker.SendRate), 1)

		w := worker.New(
			log,
			suppressions,
			renderer,
			buildProvider(log),
			pacer,
			nc,
			worker.Options{
				MaxRetries:  appConfig.Notify.Worker.MaxRetries,
				BackoffBase: parseDuration(log, "notify.worker.backoff_base", appConfig.Notify.Worker.BackoffBase),
				BackoffCap:  parseDuration(log, "notify.worker.backoff_cap", appConfig.Notify.Worker.BackoffCap),
			},
		)

		server := worker.NewServer(log, nc, w, appConfig.Notify.Worker)
		if err := server.Setup(ctx); err != nil {
			cli.LogFatal(log, "failed to set up worker consumer", err)
		}

		server.Start()
		cli.RunServer(ctx, server, func() {
			nc.Close()
			_ = shutdownTracer(context.Background())
		})
	},
}

// buildProvider selects the delivery provider from config.
func buildProvider(
	log *slog.Logger,
) provider.Provider {
	providerCfg := appConfig.Notify.Provider

	timeout := providerCfg.Timeout
	if timeout == "" {
		timeout = "10s"
	}

	switch providerCfg.Kind {
	case "http":
		return provider.NewHTTPProvider(provider.Options{
			URL:         providerCfg.URL,
			Token:       providerCfg.Token,
			FromAddress: providerCfg.FromAddress,
			FromName:    providerCfg.FromName,
			Timeout:     parseDuration(log, "notify.provider.timeout", timeout),
		})
	default:
		return provider.NewNopProvider(log)
	}
}

func init() {
	notifyWorkerCmd.AddCommand(notifyWorkerStartCmd)
}
