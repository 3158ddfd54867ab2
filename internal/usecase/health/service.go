package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the index cannot serve reads.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckStale indicates readers see an older generation than the last commit.
	CheckStale CheckResult = "stale"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	Checks     map[string]CheckResult
	Generation uint64
}

// Service coordinates health checks.
type Service struct {
	index     IndexPinger
	snapshots SnapshotState
}

// New creates a Service.
func New(index IndexPinger, snapshots SnapshotState) *Service {
	return &Service{index: index, snapshots: snapshots}
}

// Check runs health checks against all components.
// A failed index ping is unhealthy; a stale snapshot only degrades.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	status := Healthy

	if err := s.index.Ping(ctx); err != nil {
		checks["index"] = CheckError
		status = Unhealthy
	} else {
		checks["index"] = CheckOK
	}

	if s.snapshots.Stale() {
		checks["snapshot"] = CheckStale
		if status == Healthy {
			status = Degraded
		}
	} else {
		checks["snapshot"] = CheckOK
	}

	return Report{Status: status, Checks: checks, Generation: s.snapshots.Generation()}
}
