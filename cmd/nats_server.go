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
	"errors"
	"log/slog"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/spf13/cobra"

	"github.com/hartwell/rsvpd/internal/cli"
)

const natsReadyTimeout = 10 * time.Second

// natsServerCmd represents the natsServer command.
var natsServerCmd = &cobra.Command{
	Use:   "nats",
	Short: "The embedded NATS server",
	Long: `The embedded NATS server.
`,
}

// natsLifecycle adapts the embedded NATS server to the Lifecycle interface.
type natsLifecycle struct {
	server *natsserver.Server
	logger *slog.Logger
}

func (n *natsLifecycle) Start() {
	go n.server.Start()

	if !n.server.ReadyForConnections(natsReadyTimeout) {
		cli.LogFatal(n.logger, "nats server not ready",
			errors.New("timed out waiting for connections"),
			"timeout", natsReadyTimeout.String())
	}

	n.logger.Info(
		"nats server ready",
		slog.String("url", n.server.ClientURL()),
	)
}

func (n *natsLifecycle) Stop(
	_ context.Context,
) {
	n.server.Shutdown()
	n.server.WaitForShutdown()
}

// setupNATSServer builds the embedded NATS server with JetStream enabled.
func setupNATSServer(
	log *slog.Logger,
) *natsserver.Server {
	serverCfg := appConfig.NATS.Server

	opts := &natsserver.Options{
		Host:      serverCfg.Host,
		Port:      serverCfg.Port,
		JetStream: true,
		StoreDir:  serverCfg.StoreDir,
	}

	s, err := natsserver.NewServer(opts)
	if err != nil {
		cli.LogFatal(log, "failed to create nats server", err)
	}

	return s
}

func init() {
	rootCmd.AddCommand(natsServerCmd)
}
