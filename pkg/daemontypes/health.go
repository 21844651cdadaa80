package daemontypes

import "time"

// HealthCheck is one named check inside a HealthRecord.
type HealthCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// HealthRecord is a single health-probe result, created fresh per probe.
type HealthRecord struct {
	Healthy     bool          `json:"healthy"`
	Checks      []HealthCheck `json:"checks"`
	LatencyMs   int64         `json:"latency_ms"`
	TimestampMs int64         `json:"timestamp_ms"`
}

// Healthy creates a passing health record with the given probe latency.
func Healthy(latency time.Duration) HealthRecord {
	return HealthRecord{
		Healthy:     true,
		LatencyMs:   latency.Milliseconds(),
		TimestampMs: time.Now().UnixMilli(),
	}
}

// Unhealthy creates a failing health record naming reason, with the given
// probe latency.
func Unhealthy(reason string, latency time.Duration) HealthRecord {
	return HealthRecord{
		Healthy:     false,
		Checks:      []HealthCheck{{Name: "default", Passed: false, Message: reason}},
		LatencyMs:   latency.Milliseconds(),
		TimestampMs: time.Now().UnixMilli(),
	}
}

// WithCheck appends a named check to the record and returns it, recomputing
// Healthy as the conjunction of all checks (an empty check list leaves
// Healthy untouched).
func (h HealthRecord) WithCheck(name string, passed bool, message string) HealthRecord {
	h.Checks = append(h.Checks, HealthCheck{Name: name, Passed: passed, Message: message})
	healthy := true
	for _, c := range h.Checks {
		if !c.Passed {
			healthy = false
			break
		}
	}
	h.Healthy = healthy
	return h
}
