package ai

import "errors"

var (
	ErrProviderUnavailable = errors.New("assistant provider is currently unavailable") // 503
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")                         // 429
	ErrEmptyReply          = errors.New("assistant returned an empty message")         // 502
	ErrInvalidInput        = errors.New("invalid input parameters")                    // 400
)
