// Package limits provides the route-keyed throttling primitives relay
// installs between the router stage and the connector stage.
//
// # Architecture
//
// The package is organized into sub-packages:
//
//   - ratelimit: token bucket and sliding window rate limiters
//   - routestage: the pipeline stage that looks up a route's configured
//     limit and applies it to the matched request
//
// routestage.NewStage builds one limiter per configured route pattern
// from cfg.Routes and wraps the inner service; a request whose matched
// route carries no configured limit passes straight through.
package limits
