package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStartup    = errors.New("startup error")
	ErrFile       = errors.New("file could not be loaded")
	ErrNoContent  = errors.New("document has no text content")
	ErrEmbedding  = errors.New("embedding error")
	ErrValidation = errors.New("validation error")
	ErrConfig     = errors.New("config error")
	ErrProvider   = errors.New("provider error")
)

// FieldIssue describes one failed check of a structured answer
type FieldIssue struct {
	Field   string
	Problem string
}

// ValidationError reports why a model reply could not be turned into an AnsweredQuery.
type ValidationError struct {
	Issues []FieldIssue
}

func NewValidationError(issues ...FieldIssue) *ValidationError {
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Problem))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
