package errors

import "fmt"

// Error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeNoActiveGame = "NO_ACTIVE_GAME"
	ErrCodeInvalidMove  = "INVALID_MOVE"
	ErrCodeGameOver     = "GAME_OVER"
	ErrCodeTimeout      = "TIMEOUT"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "INVALID_MOVE")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewNoActiveGameError is returned when the caller has no game bound to it.
func NewNoActiveGameError() *AppError {
	return &AppError{
		Code:    ErrCodeNoActiveGame,
		Message: "No active game",
		Status:  400,
	}
}

// NewInvalidMoveError is returned when a submitted move is unparsable or illegal.
func NewInvalidMoveError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidMove,
		Message: "Invalid move",
		Status:  400,
		Err:     err,
	}
}

// NewGameOverError is returned when a move is submitted to a finished game.
func NewGameOverError(result string) *AppError {
	return &AppError{
		Code:    ErrCodeGameOver,
		Message: "Game is over: " + result,
		Status:  409,
	}
}

// NewTimeoutError is returned when a request is abandoned before its work
// was committed.
func NewTimeoutError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeTimeout,
		Message: "request timeout",
		Status:  503,
		Err:     err,
	}
}
