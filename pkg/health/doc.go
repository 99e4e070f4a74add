// Package health provides advisory-only liveness probing of router
// upstreams.
//
// A Prober periodically dials each registered upstream and tracks
// consecutive successes/failures, promoting an upstream to Unhealthy
// after UnhealthyThreshold consecutive failures and back to Healthy
// after HealthyThreshold consecutive successes. It never removes a
// candidate from a pkg/router.Table and the router never consults it
// to decide whether an upstream is selectable — Select always considers
// every upstream in a route, the same way jupiter's provider health
// checker (pkg/providers/health.go) annotated a provider's health
// without the request path depending on it. Status is exposed only for
// telemetry: dashboards and logs can show an upstream trending
// unhealthy well before it causes enough request failures to matter,
// without the proxy silently draining traffic away from it.
//
// Probing uses an exponential backoff once an upstream goes unhealthy,
// the same backoff curve jupiter's HTTPProvider health checker used, so
// a downed upstream is not hammered with full-rate probes while it
// recovers.
package health
