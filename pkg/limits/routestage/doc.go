// Package routestage adapts pkg/limits/ratelimit into a pkg/service
// pipeline stage keyed by route pattern. It installs
// between the router stage and the connector stage: the router has
// already matched and written pcontext.RouteMatch by the time this
// stage's Call runs, so it can look up the matched pattern's limiter
// without repeating the match.
//
// Only pkg/limits/ratelimit.Limiter's request-based and concurrency
// checks apply; its token-count limits are not used. See DESIGN.md for
// the full scoping rationale.
package routestage
