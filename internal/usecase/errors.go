package usecase

import "errors"

// DomainError is a user-facing failure: bad input, a forbidden transition,
// a conflict the caller can fix.
type DomainError struct {
	Code    string
	Message string
	Fields  ValidationErrors
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an infrastructure failure the user cannot act on.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeDatabase          = "DATABASE_ERROR"
	CodeIntegration       = "INTEGRATION_ERROR"
)

var (
	ErrReasonRequired     = &DomainError{Code: CodeValidation, Message: "reason is required", Fields: ValidationErrors{"reason": "reason is required"}}
	ErrFeedbackRequired   = &DomainError{Code: CodeValidation, Message: "feedback is required", Fields: ValidationErrors{"feedback": "feedback is required"}}
	ErrQuestionRequired   = &DomainError{Code: CodeValidation, Message: "question is required", Fields: ValidationErrors{"question": "question is required"}}
	ErrInvalidCredentials = &DomainError{Code: CodeUnauthorized, Message: "Invalid email or password"}
	ErrNoDraft            = &DomainError{Code: CodeInvalidTransition, Message: "opportunity has no outreach draft"}
)
