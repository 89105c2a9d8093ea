package intelligence

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/llm"
)

// ErrorKind classifies a gateway failure.
type ErrorKind string

const (
	// KindNullResult means the backend returned nothing usable.
	KindNullResult ErrorKind = "null_result"
	// KindMissingField means a required field was absent from the payload.
	KindMissingField ErrorKind = "missing_field"
	// KindWrongShape means the payload did not parse or failed validation.
	KindWrongShape ErrorKind = "wrong_shape"
	// KindUnavailable means the transport failed before any payload arrived.
	KindUnavailable ErrorKind = "unavailable"
)

// GatewayError is returned by every Gateway operation on failure.
type GatewayError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s generation failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsKind reports whether err is a GatewayError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Kind == kind
}

// classify maps a parse or validation failure to a gateway error kind.
func classify(op string, err error) *GatewayError {
	var mf *llm.MissingFieldsError
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &mf):
		return &GatewayError{Op: op, Kind: KindMissingField, Err: err}
	case errors.As(err, &ve):
		return &GatewayError{Op: op, Kind: KindWrongShape, Err: err}
	case errors.Is(err, llm.ErrInvalidOutput):
		return &GatewayError{Op: op, Kind: KindWrongShape, Err: err}
	default:
		return &GatewayError{Op: op, Kind: KindUnavailable, Err: err}
	}
}
