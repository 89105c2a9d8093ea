package contract

type ErrorCode string

const (
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrInvalidState ErrorCode = "INVALID_STATE"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrValidation   ErrorCode = "VALIDATION"
	ErrBadRequest   ErrorCode = "BAD_REQUEST"
	ErrGeneration   ErrorCode = "GENERATION_FAILED"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Field names the offending input for validation errors.
	Field string `json:"field,omitempty"`
	// Current is the session state for state errors.
	Current string `json:"current_state,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return string(e.Code) + ": " + e.Message
}
