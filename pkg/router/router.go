package router

import (
	"fmt"

	"mercator-hq/relay/pkg/pcontext"
)

// compiledRoute pairs a Route with its compiled pattern and resolved
// Strategy, plus its insertion index for tie-breaking (ties are resolved
// by insertion order).
type compiledRoute struct {
	route    Route
	pattern  compiledPattern
	strategy Strategy
	index    int
}

// Table is the path-pattern-to-upstream router for one server. It is
// built once at config load / reload time and is
// read-only thereafter except for its Stats and Strategy counters, so
// concurrent Match calls from every worker need no locking beyond what
// the strategies themselves already use.
type Table struct {
	routes []compiledRoute
	stats  *Stats
}

// NewTable compiles routes into a Table. Returns an error if any route's
// load_balancer names an unknown strategy.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{stats: newStats()}
	for i, r := range routes {
		strat, err := NewStrategy(r.LoadBalancer)
		if err != nil {
			return nil, fmt.Errorf("router: route %q: %w", r.Pattern, err)
		}
		t.routes = append(t.routes, compiledRoute{
			route:    r,
			pattern:  compilePattern(r.Pattern),
			strategy: strat,
			index:    i,
		})
	}
	return t, nil
}

// Result is the outcome of a successful Match+Select.
type Result struct {
	Route    Route
	Upstream Upstream
}

// Match finds the most specific route matching path: highest specificity
// score wins; ties resolved by insertion order (earliest-declared wins).
// It does not evaluate the route's optional `when` predicate — callers
// that wire pkg/routepolicy do that before accepting a candidate as
// final, falling through to the next-most-specific match on denial via
// MatchAll's "try next candidate" interface.
func (t *Table) Match(path string) (Route, bool) {
	best := -1
	bestScore := -1
	for i, cr := range t.routes {
		matched, score := cr.pattern.match(path)
		if !matched {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		t.stats.recordNoMatch()
		return Route{}, false
	}
	t.stats.recordMatch()
	return t.routes[best].route, true
}

// MatchAll returns every route matching path, most-specific first, so a
// caller can walk candidates in order when a `when` predicate rejects the
// most specific one.
func (t *Table) MatchAll(path string) []Route {
	type scored struct {
		score int
		index int
		route Route
	}
	var hits []scored
	for _, cr := range t.routes {
		matched, score := cr.pattern.match(path)
		if !matched {
			continue
		}
		hits = append(hits, scored{score: score, index: cr.index, route: cr.route})
	}
	// Stable sort by score desc, then index asc (insertion order).
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && (hits[j].score > hits[j-1].score ||
			(hits[j].score == hits[j-1].score && hits[j].index < hits[j-1].index)); j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	routes := make([]Route, len(hits))
	for i, h := range hits {
		routes[i] = h.route
	}
	return routes
}

// Select runs the matched route's configured strategy and returns the
// chosen Upstream, writing RouteMatch and SelectedUpstream into pc.
// route must be a value previously
// returned by Match/MatchAll on this same Table, so the strategy
// instance compiled at NewTable time — and its round-robin counter
// state — is reused rather than rebuilt per call.
func (t *Table) Select(serverName string, route Route, pc pcontext.Context) (Upstream, pcontext.Context, error) {
	var names []string
	for _, u := range route.Upstreams {
		names = append(names, u.Name)
	}
	pc = pc.WithRouteMatch(pcontext.RouteMatch{
		Pattern:    route.Pattern,
		ServerName: serverName,
		Matched:    names,
	})

	strat := t.strategyFor(route)
	if strat == nil {
		var err error
		strat, err = NewStrategy(route.LoadBalancer)
		if err != nil {
			return Upstream{}, pc, err
		}
	}
	u, err := strat.Select(route.Upstreams)
	if err != nil {
		return Upstream{}, pc, err
	}

	pc = pc.WithSelectedUpstream(pcontext.SelectedUpstream{
		Name:     u.Name,
		Endpoint: endpointOf(u),
		Strategy: strat.Name(),
	})
	return u, pc, nil
}

// strategyFor looks up the persistent Strategy instance compiled for
// route's pattern, so repeated Select calls share round-robin state.
// Falls back to nil (caller builds a fresh, stateless instance) if route
// did not originate from this Table — defensive, since Select's contract
// requires it did.
func (t *Table) strategyFor(route Route) Strategy {
	for _, cr := range t.routes {
		if cr.route.Pattern == route.Pattern {
			return cr.strategy
		}
	}
	return nil
}

func endpointOf(u Upstream) string {
	if u.UnixPath != "" {
		return u.UnixPath
	}
	return u.URI
}

// Stats returns the table's routing statistics.
func (t *Table) Stats() Snapshot { return t.stats.Snapshot() }

// Routes returns every route compiled into the table, in declaration
// order, regardless of path — for callers (pkg/httpproxy) that need to
// walk the full route set once at build time, e.g. to precompile each
// route's optional `when` predicate.
func (t *Table) Routes() []Route {
	routes := make([]Route, len(t.routes))
	for i, cr := range t.routes {
		routes[i] = cr.route
	}
	return routes
}
