package router

import "strings"

// segmentKind classifies one path-pattern segment for specificity
// scoring: overlapping patterns are disambiguated by longest-literal-
// prefix plus specificity, with ties resolved by insertion order.
type segmentKind int

const (
	segLiteral segmentKind = iota
	segParam
	segWildcardTail
)

// compiledPattern is a pattern split into segments once at registration
// time, so matching a request path never re-parses the pattern string.
type compiledPattern struct {
	raw      string
	segments []string
	kinds    []segmentKind
	// wildcardTail is true if the last segment is a {*name} tail match.
	wildcardTail bool
}

func compilePattern(pattern string) compiledPattern {
	trimmed := strings.Trim(pattern, "/")
	var segs []string
	if trimmed != "" {
		segs = strings.Split(trimmed, "/")
	}
	kinds := make([]segmentKind, len(segs))
	wildcardTail := false
	for i, s := range segs {
		switch {
		case strings.HasPrefix(s, "{*") && strings.HasSuffix(s, "}"):
			kinds[i] = segWildcardTail
			if i == len(segs)-1 {
				wildcardTail = true
			}
		case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
			kinds[i] = segParam
		default:
			kinds[i] = segLiteral
		}
	}
	return compiledPattern{raw: pattern, segments: segs, kinds: kinds, wildcardTail: wildcardTail}
}

// match reports whether path matches p, and if so, a specificity score
// used to disambiguate overlapping patterns: higher is more specific.
// The score is (number of leading literal segments matched)*2 +
// (number of param segments matched) - this gives longest-literal-prefix
// priority while still crediting parameter segments over a shorter
// wildcard match.
func (p compiledPattern) match(path string) (matched bool, score int) {
	reqTrimmed := strings.Trim(path, "/")
	var reqSegs []string
	if reqTrimmed != "" {
		reqSegs = strings.Split(reqTrimmed, "/")
	}

	for i, kind := range p.kinds {
		if kind == segWildcardTail && i == len(p.kinds)-1 {
			if i > len(reqSegs) {
				return false, 0
			}
			// The tail adds nothing to the score, so a param segment in
			// the same position outranks it.
			return true, score
		}
		if i >= len(reqSegs) {
			return false, 0
		}
		switch kind {
		case segLiteral:
			if p.segments[i] != reqSegs[i] {
				return false, 0
			}
			score += 2
		case segParam:
			score += 1
		}
	}

	if len(reqSegs) != len(p.segments) {
		return false, 0
	}
	return true, score
}
