package tools

import (
	"fmt"
	"strings"
)

// ValidationError indicates the model supplied arguments the dispatcher
// rejects outright: empty/non-string ids, out-of-range indices, a
// hallucinated or protected target. UserMessage, when set, is one of
// the fixed human-facing failure strings ("No prunable tool outputs",
// "startString not found in conversation", "Found multiple matches
// for endString", "Invalid IDs provided") that reach the user only via
// the notification channel, separate from Error()'s model-facing text.
type ValidationError struct {
	ToolName    string
	UserMessage string
	Errors      []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %s validation failed: %s", e.ToolName, strings.Join(e.Errors, "; "))
}

func newValidationError(tool string, errs ...string) *ValidationError {
	return &ValidationError{ToolName: tool, Errors: errs}
}

// newFailureError is newValidationError plus the fixed user-facing
// failure string the notification channel delivers to the human.
func newFailureError(tool, userMessage string, errs ...string) *ValidationError {
	return &ValidationError{ToolName: tool, UserMessage: userMessage, Errors: errs}
}
