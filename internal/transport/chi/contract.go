package chi

import (
	"context"

	"github.com/kailas-cloud/policyqa/internal/domain"
	healthuc "github.com/kailas-cloud/policyqa/internal/usecase/health"
	qauc "github.com/kailas-cloud/policyqa/internal/usecase/qa"
	usageuc "github.com/kailas-cloud/policyqa/internal/usecase/usage"
)

// QA answers questions and lists the country menu.
type QA interface {
	Ask(ctx context.Context, question, country string, k int) (qauc.Answer, error)
	Countries(ctx context.Context) ([]string, error)
}

// ContextRetriever returns the context bundle without synthesis.
type ContextRetriever interface {
	Retrieve(ctx context.Context, question, country string, k int) (domain.ContextBundle, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports token budget consumption.
type UsageReporter interface {
	GetReport(ctx context.Context, period usageuc.Period) usageuc.Report
}
