package gateway

import "errors"

var (
	// ErrMissingAPIKey indicates the provider is known but no credentials
	// were supplied. Distinct from a call failure so callers can fail fast
	// before any model call.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrUnknownProvider indicates the provider identifier is not supported.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrEmptyCompletion indicates the provider returned no usable content.
	ErrEmptyCompletion = errors.New("model returned no content")
)
