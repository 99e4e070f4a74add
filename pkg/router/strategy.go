package router

import (
	"fmt"
	"math/rand"
	"sync/atomic"
)

// Strategy selects one Upstream from a Route's candidate list.
// Implementations must be safe for concurrent use — a router is shared
// by every connection on a worker (and, for round-robin, the counter is
// process-wide so weights hold across workers the same way a single
// upstream pool's keep-alive accounting would).
type Strategy interface {
	// Select returns one of upstreams, expanding each upstream's weight
	// into a virtual ring before picking.
	Select(upstreams []Upstream) (Upstream, error)
	Name() string
}

// RandomStrategy selects uniformly over the weight-expanded candidate
// list. It is the default policy.
type RandomStrategy struct{}

func NewRandomStrategy() *RandomStrategy { return &RandomStrategy{} }

func (s *RandomStrategy) Name() string { return string(LoadBalancerRandom) }

func (s *RandomStrategy) Select(upstreams []Upstream) (Upstream, error) {
	ring := expandRing(upstreams)
	if len(ring) == 0 {
		return Upstream{}, fmt.Errorf("router: no upstreams available for random selection")
	}
	return ring[rand.Intn(len(ring))], nil
}

// RoundRobinStrategy cycles strictly through the weight-expanded ring,
// using one atomic.Int64 counter shared by every caller of this instance
// (every worker that uses the same Table), with modulo selection and
// periodic overflow reset.
type RoundRobinStrategy struct {
	counter atomic.Int64
}

func NewRoundRobinStrategy() *RoundRobinStrategy { return &RoundRobinStrategy{} }

func (s *RoundRobinStrategy) Name() string { return string(LoadBalancerRoundRobin) }

func (s *RoundRobinStrategy) Select(upstreams []Upstream) (Upstream, error) {
	ring := expandRing(upstreams)
	if len(ring) == 0 {
		return Upstream{}, fmt.Errorf("router: no upstreams available for round-robin selection")
	}

	count := s.counter.Add(1) - 1
	if count >= 1_000_000_000 {
		s.counter.CompareAndSwap(count+1, 0)
		count = 0
	}

	return ring[int(count%int64(len(ring)))], nil
}

// expandRing builds the weighted virtual ring: each upstream appears
// Weight times, so a plain modulo-index selection already honors weight.
func expandRing(upstreams []Upstream) []Upstream {
	var ring []Upstream
	for _, u := range upstreams {
		w := u.effectiveWeight()
		for i := 0; i < w; i++ {
			ring = append(ring, u)
		}
	}
	return ring
}

// NewStrategy builds the Strategy named by lb, defaulting to random.
func NewStrategy(lb LoadBalancer) (Strategy, error) {
	switch lb {
	case LoadBalancerRoundRobin:
		return NewRoundRobinStrategy(), nil
	case LoadBalancerRandom, "":
		return NewRandomStrategy(), nil
	default:
		return nil, fmt.Errorf("router: unknown load_balancer %q", lb)
	}
}
