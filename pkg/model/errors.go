package model

import "fmt"

const (
	CodeScanError       = "SCAN_ERROR"
	CodeContainerError  = "CONTAINER_ERROR"
	CodeSafetyViolation = "SAFETY_VIOLATION"
	CodeAccessDenied    = "ACCESS_DENIED"
	CodeNotFound        = "NOT_FOUND"
)

// AppError is the structured failure handed to the calling layer.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func ScanError(err error) *AppError {
	return &AppError{
		Code:    CodeScanError,
		Message: "failed to read socket table",
		Details: err.Error(),
		Err:     err,
	}
}
