package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates that answers may be unavailable but retrieval still works.
	Degraded Status = "degraded"
	// Unhealthy indicates that retrieval cannot work.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckUnconfigured indicates a component with no credentials.
	CheckUnconfigured CheckResult = "unconfigured"
)

// Component names used as Report.Checks keys.
const (
	ComponentDatabase   = "database"
	ComponentIndex      = "index"
	ComponentEmbedding  = "embedding"
	ComponentGeneration = "generation"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db         DBPinger
	index      IndexChecker
	embedding  ProviderChecker
	generation ProviderChecker
}

// New creates a Service. index and embedding can be nil; a nil generation
// is reported as unconfigured.
func New(db DBPinger, index IndexChecker, embedding, generation ProviderChecker) *Service {
	return &Service{db: db, index: index, embedding: embedding, generation: generation}
}

// Check runs health checks against all components.
// Database, index and embedding failures break retrieval and make the service unhealthy.
// A generation failure only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 4)

	checks[ComponentDatabase] = runCheck(ctx, s.db.Ping)
	if s.index != nil {
		checks[ComponentIndex] = runCheck(ctx, s.index.Ready)
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = runCheck(ctx, s.embedding.HealthCheck)
	}
	if s.generation != nil {
		checks[ComponentGeneration] = runCheck(ctx, s.generation.HealthCheck)
	} else {
		checks[ComponentGeneration] = CheckUnconfigured
	}

	status := Healthy
	for name, v := range checks {
		if v == CheckOK {
			continue
		}
		if name == ComponentGeneration {
			if status == Healthy {
				status = Degraded
			}
			continue
		}
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func runCheck(ctx context.Context, fn func(context.Context) error) CheckResult {
	if err := fn(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
