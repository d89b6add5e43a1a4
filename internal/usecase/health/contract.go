package health

import "context"

// StorePinger checks KV store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexReporter reports whether the book index has been built.
type IndexReporter interface {
	Ready() bool
}
