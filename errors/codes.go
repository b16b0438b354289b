// Package errors provides the structured error handling system for the
// shipgate pipeline. It extends Go's standard error handling with string
// error codes, context preservation, and exit-code classification so that
// every failure surfaces to the terminal with a diagnosable identity.
package errors

// ErrorCode represents a specific failure condition in the pipeline.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Input validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeUnknownEnvironment indicates an environment name outside the
	// registered set.
	CodeUnknownEnvironment ErrorCode = "UNKNOWN_ENVIRONMENT"

	// CodeInvalidCommitMessage indicates a commit message that violates the
	// conventional-commit grammar.
	CodeInvalidCommitMessage ErrorCode = "INVALID_COMMIT_MESSAGE"

	// Quality gate errors.

	// CodeGateFailed indicates a blocking quality-gate check failed.
	CodeGateFailed ErrorCode = "QUALITY_GATE_FAILED"

	// Pipeline errors.

	// CodeBuildFailed indicates a sub-project build failed.
	CodeBuildFailed ErrorCode = "BUILD_FAILED"

	// CodePublishFailed indicates a provider publish call failed.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// CodeMissingArtifact indicates the staged artifact tree does not exist
	// or is empty when a deploy was asked to skip the build.
	CodeMissingArtifact ErrorCode = "MISSING_ARTIFACT"

	// CodeUserCancelled indicates the operator declined a confirmation
	// prompt. This is a deliberate abort, not a failure.
	CodeUserCancelled ErrorCode = "USER_CANCELLED"

	// Execution errors.

	// CodeExecutionFailed indicates an external command failed.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeToolMissing indicates a required external tool is not installed
	// or does not satisfy the minimum version constraint.
	CodeToolMissing ErrorCode = "TOOL_MISSING"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
