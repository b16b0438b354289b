package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/shipgate/shipgate/config"
	"github.com/shipgate/shipgate/coverage"
	"github.com/shipgate/shipgate/executor"
	"github.com/shipgate/shipgate/fs"
	"github.com/shipgate/shipgate/vcs"
)

// Check identifiers, used in issue output.
const (
	CheckFormat   = "format"
	CheckAnalyze  = "analyze"
	CheckTests    = "test-suite"
	CheckCoverage = "coverage-threshold"
	CheckTrunk    = "trunk-notice"
)

// EnvForceTests, when set to a non-empty value, forces the pre-commit
// test run even when no staged file matches the test-file convention.
const EnvForceTests = "SHIPGATE_FORCE_TESTS"

// Params configures an Engine. Every field is required except
// ForceTests.
type Params struct {
	// Runner executes the external tools (dart, flutter).
	Runner executor.Runner

	// Repo is the repository under gate.
	Repo *vcs.Repo

	// FS is the repository-root filesystem, used to read the coverage
	// summary.
	FS *fs.FS

	// Config is the gate section of the pipeline configuration.
	Config config.Gate

	// Trunk is the primary branch name.
	Trunk string

	// ForceTests forces the conditional pre-commit test run.
	ForceTests bool
}

// Engine evaluates the lifecycle events. Every evaluation is computed
// fresh; nothing is persisted between invocations.
type Engine struct {
	params Params
}

// New creates an Engine.
func New(params Params) *Engine {
	return &Engine{params: params}
}

// PreCommit gates the pre-commit event:
//  1. format every staged Dart file in place and re-stage it (never
//     blocks),
//  2. analyze the whole project (blocks on any diagnostic),
//  3. run the test suite when a staged file matches the test-file
//     convention or ForceTests is set (blocks on failure).
//
// The returned error reports infrastructure failures only; gate
// verdicts are carried by the issues.
func (e *Engine) PreCommit(ctx context.Context) ([]Issue, error) {
	staged, err := e.params.Repo.StagedFiles(ctx)
	if err != nil {
		return nil, err
	}

	var issues []Issue

	if formatIssue := e.formatStaged(ctx, staged); formatIssue != nil {
		issues = append(issues, *formatIssue)
	}

	issues = append(issues, e.analyze(ctx)...)

	if e.params.ForceTests || matchesTestFile(staged, e.params.Config.TestFileSuffix) {
		issues = append(issues, e.runTests(ctx, false)...)
	}

	return issues, nil
}

// PrePush gates the pre-push event: the full test suite with coverage
// (blocking), the aggregate coverage threshold (advisory), and an
// informational notice when the current branch is the trunk.
func (e *Engine) PrePush(ctx context.Context) ([]Issue, error) {
	issues := e.runTests(ctx, true)

	// Coverage is advisory at pre-push: warn, never block. The report
	// comes from the coverage run above, or from the most recent one if
	// that run failed before writing it.
	cov := e.params.Config.Coverage
	report, covErr := coverage.Parse(e.params.FS, cov.File, coverage.Options{
		Exclude:   cov.Exclude,
		Layers:    cov.Layers,
		Threshold: cov.Threshold,
	})
	switch {
	case covErr != nil:
		issues = append(issues, NewIssue(CheckCoverage, SeverityWarning,
			"no coverage summary available: "+covErr.Error(), "flutter test --coverage"))
	case !report.MeetsThreshold():
		issues = append(issues, NewIssue(CheckCoverage, SeverityWarning,
			formatCoverageWarning(report), "shipgate coverage"))
	}

	branch, err := e.params.Repo.CurrentBranch(ctx)
	if err != nil {
		return issues, err
	}
	if branch == e.params.Trunk {
		issues = append(issues, NewIssue(CheckTrunk, SeverityInfo,
			"pushing to trunk '"+e.params.Trunk+"'", ""))
	}

	return issues, nil
}

// CommitMsg gates the commit-msg event. It is a pure grammar check.
func (e *Engine) CommitMsg(message string) []Issue {
	return ValidateMessage(message)
}

// formatStaged normalizes the staged Dart files and re-stages them.
// This step never blocks; a formatter breakdown surfaces as a warning.
func (e *Engine) formatStaged(ctx context.Context, staged []string) *Issue {
	files := dartFiles(staged)
	if len(files) == 0 {
		return nil
	}

	args := append([]string{"format"}, files...)
	if _, err := e.params.Runner.Run(ctx, "dart", args); err != nil {
		issue := NewIssue(CheckFormat, SeverityWarning,
			"formatter did not run cleanly: "+err.Error(), "dart format .")
		return &issue
	}
	if err := e.params.Repo.Stage(ctx, files...); err != nil {
		issue := NewIssue(CheckFormat, SeverityWarning,
			"failed to re-stage formatted files: "+err.Error(), "git add "+strings.Join(files, " "))
		return &issue
	}
	return nil
}

// analyze runs static analysis over the whole project. Any diagnostic
// blocks; the analyzer's own output names the file and line.
func (e *Engine) analyze(ctx context.Context) []Issue {
	result, err := e.params.Runner.Run(ctx, "flutter", []string{"analyze"},
		executor.WithCapture(false, false, true))
	if err == nil {
		return nil
	}
	message := "static analysis reported diagnostics"
	if out := strings.TrimSpace(result.Combined); out != "" {
		message += ":\n" + out
	}
	return []Issue{NewIssue(CheckAnalyze, SeverityError, message, "flutter analyze")}
}

// runTests runs the test suite, with coverage when asked.
func (e *Engine) runTests(ctx context.Context, withCoverage bool) []Issue {
	args := []string{"test"}
	remedy := "flutter test"
	if withCoverage {
		args = append(args, "--coverage")
		remedy = "flutter test --coverage"
	}
	result, err := e.params.Runner.Run(ctx, "flutter", args,
		executor.WithCapture(false, false, true))
	if err == nil {
		return nil
	}
	message := "test suite failed"
	if out := strings.TrimSpace(result.Combined); out != "" {
		message += ":\n" + out
	}
	return []Issue{NewIssue(CheckTests, SeverityError, message, remedy)}
}

func formatCoverageWarning(report *coverage.Report) string {
	return fmt.Sprintf("aggregate line coverage %.1f%% is below the %.0f%% target",
		report.Overall.Percent(), report.Threshold)
}

// dartFiles filters the staged list down to Dart sources.
func dartFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if strings.HasSuffix(p, ".dart") {
			out = append(out, p)
		}
	}
	return out
}

// matchesTestFile reports whether any path matches the test-file naming
// convention. Pure over the path list so it is testable without any
// version-control tooling.
func matchesTestFile(paths []string, suffix string) bool {
	if suffix == "" {
		return false
	}
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}
