package gate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shipgate/shipgate/gate"
)

func TestValidateMessageAccepted(t *testing.T) {
	valid := []string{
		"feat(x): add y",
		"fix: handle empty coverage file",
		"docs(readme): describe deploy flags",
		"refactor(deploy): extract step descriptors",
		"chore: bump firebase tools",
		"revert: drop staging experiment",
		"test(gate): cover trunk notice",
		// Long-form type spellings are accepted as aliases.
		"feature(x): add y",
		"performance(lcov): stream the parse",
		"ci-config: cache pub dependencies",
		"build-config(app): raise base href",
	}
	for _, msg := range valid {
		t.Run(msg, func(t *testing.T) {
			assert.Empty(t, gate.ValidateMessage(msg))
		})
	}
}

func TestValidateMessageRejected(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"no grammar at all", "Added y."},
		{"unknown type", "wip(x): add y"},
		{"missing colon", "feat add y"},
		{"empty", ""},
		{"only comments", "# please enter the commit message\n"},
		{"uppercase subject", "feat(x): Add y"},
		{"trailing period", "feat(x): add y."},
		{"over 72 chars", "feat(x): " + strings.Repeat("a", 80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := gate.ValidateMessage(tt.msg)
			assert.True(t, gate.Blocking(issues), "expected blocking issues, got %v", issues)
		})
	}
}

func TestValidateMessageIgnoresCommentsAndBody(t *testing.T) {
	msg := "# commit template\nfeat(auth): add login flow\n\nLonger body text. With Periods.\n"
	assert.Empty(t, gate.ValidateMessage(msg))
}

func TestValidateMessageIssuesCarryRemedy(t *testing.T) {
	issues := gate.ValidateMessage("Broken message")
	for _, issue := range issues {
		assert.NotEmpty(t, issue.Remedy)
	}
}
