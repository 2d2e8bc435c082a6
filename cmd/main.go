/*
Package main is the entry point for the HZ Room server.

The default command loads configuration, initializes logging, wires the topic transport,
server directory, avatar storage and bots, serves HTTP and shuts down gracefully on
SIGINT or SIGTERM. The who command lists nicknames online on a server.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:           "hzroom",
		Short:         "Real-time group chat rooms with presence and bots",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(serve, newWhoCmd())
	return root
}
