// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/lib/socketapi"
)

// DefaultSocketPath is where the poll service listens unless its
// configuration says otherwise. Matches the service config default.
const DefaultSocketPath = "/run/council/poll.sock"

// SocketEnvVar is the environment variable consulted for the socket
// path default, so deployments with a relocated socket do not need
// --socket on every invocation.
const SocketEnvVar = "COUNCIL_POLL_SOCKET"

// callTimeout bounds a single service call. Poll operations are
// in-memory index work plus a few small file writes, so anything
// slower than this indicates a wedged service.
const callTimeout = 30 * time.Second

// ServiceConnection manages the socket flag for commands that talk to
// the poll service. The flag default comes from COUNCIL_POLL_SOCKET if
// set, otherwise [DefaultSocketPath].
//
// Implements [FlagBinder], so embedding it in a command's parameter
// struct registers --socket during [BindFlags] processing.
type ServiceConnection struct {
	SocketPath string
}

// AddFlags registers the --socket flag.
func (c *ServiceConnection) AddFlags(flagSet *pflag.FlagSet) {
	socketDefault := DefaultSocketPath
	if envSocket := os.Getenv(SocketEnvVar); envSocket != "" {
		socketDefault = envSocket
	}
	flagSet.StringVar(&c.SocketPath, "socket", socketDefault, "poll service socket path")
}

// Connect creates a client for the configured socket. Dialing happens
// per call, so this never fails; an unreachable socket surfaces as a
// connection error on the first Call.
func (c *ServiceConnection) Connect() *socketapi.Client {
	return socketapi.NewClient(c.SocketPath)
}

// CallContext returns a context with the standard timeout for service
// calls.
func CallContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), callTimeout)
}
