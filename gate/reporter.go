package gate

import (
	"fmt"
	"io"
)

// Reporter writes gate issues in a terminal-friendly format.
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a Reporter targeting the given writer.
func NewReporter(writer io.Writer) *Reporter {
	return &Reporter{writer: writer}
}

// Report writes every issue, one block per issue.
func (r *Reporter) Report(issues []Issue) error {
	for _, issue := range issues {
		if _, err := fmt.Fprintln(r.writer, issue.String()); err != nil {
			return fmt.Errorf("failed to write issue: %w", err)
		}
	}
	return nil
}
