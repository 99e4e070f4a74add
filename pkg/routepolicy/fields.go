package routepolicy

import (
	"net/http"
	"strings"
	"time"
)

// Fields is the request-fact lookup a compiled predicate is evaluated
// against. It is deliberately narrower than pcontext.Context: only the
// facts a route predicate plausibly needs (method, path, headers, SNI,
// time of day), built fresh per request by the caller (pkg/httpproxy)
// rather than threading the whole Context type into this package.
type Fields struct {
	Method string
	Path   string
	Header http.Header
	SNI    string
	Now    time.Time
}

// lookup resolves field (e.g. "method", "path", "sni", "time_of_day", or
// "header.X-Env") against f.
func (f Fields) lookup(field string) (interface{}, bool) {
	if rest, ok := strings.CutPrefix(field, "header."); ok {
		if f.Header == nil {
			return "", true
		}
		return f.Header.Get(rest), true
	}
	switch field {
	case "method":
		return f.Method, true
	case "path":
		return f.Path, true
	case "sni":
		return f.SNI, true
	case "time_of_day":
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		return float64(now.Hour()) + float64(now.Minute())/60, true
	default:
		return nil, false
	}
}
