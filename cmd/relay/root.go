package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "relay - a thread-per-core L4/L7 reverse proxy",
	Long: `relay is a thread-per-core reverse proxy: each worker owns its own
accept loop and upstream connection pool, and each worker's pipeline can
be rebuilt and swapped without dropping an in-flight connection (the
rebuild reuses the routes, certificates and predicates loaded at startup).

It proxies HTTP and Thrift traffic, providing:
  - Path-pattern routing with per-route load balancing
  - Pooled upstream connections with TLS/ALPN negotiation
  - Route-admission predicates (header, SNI, method)
  - Evidence records of every proxied request for audit trails
  - Rate limiting and request throttling per route
  - Pipeline rebuilds over SIGHUP or a polled Git source

For more information, visit: https://github.com/mercator-hq/relay`,
	Version: Version,
}

// Execute runs the root command against a context cancelled on
// SIGINT/SIGTERM, so `run`'s accept loops and background workers see
// ctx.Done() and unwind instead of the process dying mid-request.
func Execute() {
	if err := rootCmd.ExecuteContext(cli.SetupSignalHandler()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.toml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
