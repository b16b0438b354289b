// Package gate implements the quality-gate engine that guards the three
// version-control lifecycle events: pre-commit, pre-push, and commit-msg.
// Checks produce issues; any error-severity issue blocks the event.
package gate

import (
	"fmt"
)

// Severity represents the severity level of a gate issue.
type Severity int

const (
	// SeverityError indicates a blocking issue that aborts the event.
	SeverityError Severity = iota
	// SeverityWarning indicates an advisory issue that never blocks.
	SeverityWarning
	// SeverityInfo indicates an informational notice.
	SeverityInfo
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Issue represents a single finding from a quality check.
type Issue struct {
	// Check is the identifier of the check that produced the issue.
	Check string

	// Severity indicates whether the issue blocks the event.
	Severity Severity

	// Message is the human-readable description.
	Message string

	// Remedy is the exact command the operator should run to fix or
	// reproduce the failure. Required on blocking issues.
	Remedy string
}

// String returns the formatted single-issue representation.
func (i Issue) String() string {
	s := fmt.Sprintf("%s [%s] %s", i.Severity, i.Check, i.Message)
	if i.Remedy != "" {
		s += fmt.Sprintf("\n    fix: %s", i.Remedy)
	}
	return s
}

// NewIssue creates an Issue with the given fields.
func NewIssue(check string, severity Severity, message, remedy string) Issue {
	return Issue{Check: check, Severity: severity, Message: message, Remedy: remedy}
}

// Blocking reports whether any issue carries error severity.
func Blocking(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
