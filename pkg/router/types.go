package router

import "fmt"

// Upstream is one candidate destination for a route. Exactly one of URI
// or UnixPath is set.
type Upstream struct {
	// Name identifies the upstream for logging, tracing, and stats.
	Name string
	// URI is the endpoint, scheme in {http, https}. Empty if UnixPath is set.
	URI string
	// UnixPath is a filesystem path to a Unix socket. Empty if URI is set.
	UnixPath string
	// Weight is the relative selection weight, >= 1, default 1.
	Weight int
}

// effectiveWeight returns w.Weight, defaulting to 1.
func (u Upstream) effectiveWeight() int {
	if u.Weight < 1 {
		return 1
	}
	return u.Weight
}

// LoadBalancer names the pluggable strategy a Route uses to pick among
// its candidate upstreams.
type LoadBalancer string

const (
	LoadBalancerRandom      LoadBalancer = "random"
	LoadBalancerRoundRobin  LoadBalancer = "round_robin"
)

// Route is one path-pattern entry.
type Route struct {
	// Pattern is a literal path, a single-segment pattern ("/users/{id}"),
	// or a tail-wildcard pattern ("/static/{*rest}").
	Pattern      string
	LoadBalancer LoadBalancer
	Upstreams    []Upstream
	// When, if non-empty, is an optional route-admission predicate
	// evaluated against the request Context before this route is
	// considered a match; see pkg/routepolicy.
	When string
	// ContentHandler, if true, tells pkg/httpproxy to fully buffer the
	// response body (up to its configured max) instead of streaming it,
	// for routes whose handling needs the whole body available at once.
	ContentHandler bool
}

func (r Route) String() string {
	return fmt.Sprintf("Route{%s lb=%s upstreams=%d}", r.Pattern, r.LoadBalancer, len(r.Upstreams))
}
