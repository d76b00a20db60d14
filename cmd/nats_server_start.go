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
	"github.com/spf13/cobra"

	"github.com/hartwell/rsvpd/internal/cli"
)

// natsServerStartCmd represents the natsServerStart command.
var natsServerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the embedded NATS server",
	Long: `Start the embedded NATS server with JetStream enabled.
Provisions the streams and KV buckets the RSVP subsystem needs.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		log := logger.With("component", "nats")

		s := setupNATSServer(log)

		ns := &natsLifecycle{server: s, logger: log}
		ns.Start()

		// Provision infrastructure so consumers can start in any order.
		nc := connectMessaging(log)
		ensureStreams(ctx, log, nc)
		ensureKV(ctx, log, nc, cli.BuildKVConfig(appConfig.NATS.Guests, defaultGuestsBucket))
		ensureKV(ctx, log, nc, cli.BuildKVConfig(appConfig.NATS.Supprs, defaultSuppressionsBucket))
		ensureKV(ctx, log, nc, cli.BuildAuditKVConfig(appConfig.Audit, defaultAuditBucket))
		nc.Close()

		cli.RunServer(ctx, ns)
	},
}

func init() {
	natsServerCmd.AddCommand(natsServerStartCmd)
}
