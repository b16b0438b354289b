package gate

import (
	"strings"
	"unicode"

	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

const (
	// CheckCommitMessage names the commit-msg grammar check.
	CheckCommitMessage = "commit-message"

	// maxSubjectLength bounds the commit header line.
	maxSubjectLength = 72

	// commitMsgRemedy is the remedial hint attached to grammar issues.
	commitMsgRemedy = `git commit --amend  # e.g. "feat(auth): add login flow"`
)

// typeAliases maps the accepted long-form type spellings onto the
// conventional tokens the parser knows.
var typeAliases = map[string]string{
	"feature":      "feat",
	"performance":  "perf",
	"ci-config":    "ci",
	"build-config": "build",
}

// ValidateMessage checks a commit message against the conventional-commit
// grammar: type(scope): subject, type from the conventional set, subject
// at most 72 characters, starting lowercase, with no trailing period.
// Comment lines and everything after the header are ignored.
func ValidateMessage(message string) []Issue {
	header := messageHeader(message)
	if header == "" {
		return []Issue{NewIssue(CheckCommitMessage, SeverityError,
			"commit message is empty", commitMsgRemedy)}
	}

	var issues []Issue

	machine := parser.NewMachine(
		conventionalcommits.WithTypes(conventionalcommits.TypesConventional),
	)
	msg, err := machine.Parse([]byte(canonicalizeType(header)))
	if err != nil {
		return []Issue{NewIssue(CheckCommitMessage, SeverityError,
			"header does not match 'type(scope): subject' with a conventional type (feat, fix, docs, style, refactor, test, chore, perf, ci, build, revert): "+err.Error(),
			commitMsgRemedy)}
	}

	if len(header) > maxSubjectLength {
		issues = append(issues, NewIssue(CheckCommitMessage, SeverityError,
			"header exceeds 72 characters", commitMsgRemedy))
	}

	if cc, ok := msg.(*conventionalcommits.ConventionalCommit); ok {
		desc := cc.Description
		if desc != "" {
			first := []rune(desc)[0]
			if unicode.IsUpper(first) {
				issues = append(issues, NewIssue(CheckCommitMessage, SeverityError,
					"subject must start with a lowercase letter", commitMsgRemedy))
			}
		}
		if strings.HasSuffix(desc, ".") {
			issues = append(issues, NewIssue(CheckCommitMessage, SeverityError,
				"subject must not end with a period", commitMsgRemedy))
		}
		if cc.Scope != nil && strings.TrimSpace(*cc.Scope) == "" {
			issues = append(issues, NewIssue(CheckCommitMessage, SeverityError,
				"scope must not be empty when present", commitMsgRemedy))
		}
	}

	return issues
}

// canonicalizeType rewrites a long-form type spelling to its
// conventional token so the parser accepts both. The type ends at the
// scope, the breaking-change marker, or the colon.
func canonicalizeType(header string) string {
	end := strings.IndexAny(header, "(!:")
	if end <= 0 {
		return header
	}
	if canonical, ok := typeAliases[header[:end]]; ok {
		return canonical + header[end:]
	}
	return header
}

// messageHeader returns the first non-comment, non-blank line of the
// message. Lines starting with '#' are editor scaffolding.
func messageHeader(message string) string {
	for _, line := range strings.Split(message, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		return trimmed
	}
	return ""
}
