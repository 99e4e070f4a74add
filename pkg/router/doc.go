// Package router implements path-pattern matching to a weighted upstream
// list, plus pluggable load-balancing (random and round-robin).
//
// The weighted-ring-plus-atomic-counter round-robin approach and the
// lock-free stats counters follow the same shape as this module's other
// hot-path state; sticky/manual/health-based strategies are left out
// since only two load-balancer policies are named — see DESIGN.md.
package router
