// Relay is a thread-per-core L4/L7 reverse proxy.
//
// It accepts HTTP and Thrift connections across a configured set of
// servers, routes each request to an upstream by path pattern, pools
// upstream connections, records an evidence trail of every request, and
// rebuilds each worker's pipeline on SIGHUP or a polled Git config
// source without dropping an in-flight connection. A rebuild reuses the
// routing table, upstreams and certificates loaded at startup; changes
// to those take effect on restart.
//
// Usage:
//
//	# Start with the default config file
//	relay run
//
//	# Start with a custom config file
//	relay run --config /etc/relay/config.toml
//
//	# Validate config without starting any listener
//	relay run --dry-run
//
// For complete documentation, see: https://github.com/mercator-hq/relay
package main

func main() {
	Execute()
}
