package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks that the pre-ingested vector index is present.
type IndexChecker interface {
	Ready(ctx context.Context) error
}

// ProviderChecker checks external model provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
