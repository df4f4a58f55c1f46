package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// AnalysisErrorKind distinguishes why a remote analysis call failed.
type AnalysisErrorKind string

const (
	AnalysisTransport      AnalysisErrorKind = "TRANSPORT"
	AnalysisAuthentication AnalysisErrorKind = "AUTHENTICATION"
	AnalysisInvalidRequest AnalysisErrorKind = "INVALID_REQUEST"
	AnalysisUnknown        AnalysisErrorKind = "UNKNOWN"
)

// AnalysisError wraps a failed remote analysis call. The kind is preserved
// alongside the original cause so callers can tell a timeout from a rejected
// key without string-matching.
type AnalysisError struct {
	Kind  AnalysisErrorKind
	Cause error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analysis failed (%s): %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("analysis failed (%s)", e.Kind)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

func NewAnalysisError(kind AnalysisErrorKind, cause error) *AnalysisError {
	return &AnalysisError{Kind: kind, Cause: cause}
}
