package gembot

import "github.com/gemba-cloud/gembot/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidChunking     = domain.ErrInvalidChunking
	ErrEmptyDocument       = domain.ErrEmptyDocument
	ErrEmptyQuestion       = domain.ErrEmptyQuestion
	ErrAlreadyIngested     = domain.ErrAlreadyIngested
	ErrDuplicateChunk      = domain.ErrDuplicateChunk
	ErrDimensionMismatch   = domain.ErrDimensionMismatch
	ErrIndexNotReady       = domain.ErrIndexNotReady
	ErrProviderUnavailable = domain.ErrProviderUnavailable
	ErrProviderRejected    = domain.ErrProviderRejected
	ErrProviderQuota       = domain.ErrProviderQuota
)
