package health

import "time"

// Status is an upstream's current advisory health classification.
type Status string

const (
	// StatusUnknown is the state of an upstream that has never been
	// probed.
	StatusUnknown Status = "unknown"
	// StatusHealthy is the state of an upstream whose most recent probes
	// are succeeding (or has not yet reached UnhealthyThreshold failures).
	StatusHealthy Status = "healthy"
	// StatusUnhealthy is the state of an upstream that has failed
	// UnhealthyThreshold consecutive probes.
	StatusUnhealthy Status = "unhealthy"
)

// UpstreamStatus is a point-in-time snapshot of one upstream's probe
// history.
type UpstreamStatus struct {
	// ServerName is the server the upstream belongs to.
	ServerName string
	// Name is the upstream's router.Upstream.Name.
	Name string
	// Endpoint is the address last probed (URI or UnixPath).
	Endpoint string
	// Status is the current classification.
	Status Status
	// ConsecutiveFailures counts unbroken failed probes.
	ConsecutiveFailures int
	// ConsecutiveSuccesses counts unbroken successful probes.
	ConsecutiveSuccesses int
	// LastCheck is when the most recent probe completed.
	LastCheck time.Time
	// LastError is the error message from the most recent failed probe,
	// empty if the most recent probe succeeded.
	LastError string
	// LastLatency is how long the most recent probe took.
	LastLatency time.Duration
}
