package domain

import "errors"

var (
	// ErrInvalidChunking signals a chunking configuration that cannot make progress.
	ErrInvalidChunking = errors.New("invalid chunking configuration")
	// ErrEmptyDocument signals an ingestion request with no text.
	ErrEmptyDocument = errors.New("empty document")
	// ErrEmptyQuestion signals a question with no text.
	ErrEmptyQuestion = errors.New("empty question")
	// ErrAlreadyIngested signals a repeated ingest without an explicit reset.
	ErrAlreadyIngested = errors.New("document already ingested")
	// ErrDuplicateChunk signals a chunk id collision in the index.
	ErrDuplicateChunk = errors.New("duplicate chunk id")
	// ErrDimensionMismatch signals a vector whose length differs from the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexNotReady signals a query against an index with no entries yet.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrProviderUnavailable signals a transient model-provider failure (network, timeout, 5xx).
	ErrProviderUnavailable = errors.New("model provider unavailable")
	// ErrProviderRejected signals that the provider refused the request (4xx).
	ErrProviderRejected = errors.New("model provider rejected request")
	// ErrProviderQuota signals an exhausted provider quota or rate limit.
	ErrProviderQuota = errors.New("model provider quota exceeded")
)
