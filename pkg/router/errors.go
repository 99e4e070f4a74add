package router

import "errors"

// ErrNoRouteMatched is returned when no registered pattern matches the
// request path. Callers in pkg/httpproxy wrap it as perrors.ServerPolicy,
// surfaced as a 404-equivalent.
var ErrNoRouteMatched = errors.New("router: no route matched request path")

// ErrRouteDenied is returned when a route's optional pkg/routepolicy
// "when" predicate rejects the request.
var ErrRouteDenied = errors.New("router: route predicate denied request")
