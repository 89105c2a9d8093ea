package llm

import "errors"

// Transport-level failures. The intelligence gateway maps them onto its
// GatewayError kinds.
var (
	ErrUnavailable    = errors.New("generation backend unavailable")
	ErrTimeout        = errors.New("generation request timed out")
	ErrInvalidOutput  = errors.New("generation output is not the expected JSON")
	ErrRetryExhausted = errors.New("generation retries exhausted")
)
