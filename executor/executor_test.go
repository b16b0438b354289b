package executor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/shipgate/executor"
)

func TestRunCapturesStdout(t *testing.T) {
	runner := executor.NewRunner()
	result, err := runner.Run(context.Background(), "echo", []string{"hello", "world"})
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, "hello world")
	assert.Equal(t, 0, result.ExitCode)
}

func TestRunReportsExitCode(t *testing.T) {
	runner := executor.NewRunner()
	result, err := runner.Run(context.Background(), "sh", []string{"-c", "exit 3"})
	require.Error(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestRunCombinedOutput(t *testing.T) {
	runner := executor.NewRunner()
	result, err := runner.Run(context.Background(), "sh",
		[]string{"-c", "echo out && echo err >&2"},
		executor.WithCapture(false, false, true),
	)
	require.NoError(t, err)
	assert.Contains(t, result.Combined, "out")
	assert.Contains(t, result.Combined, "err")
}

func TestRunWithInput(t *testing.T) {
	runner := executor.NewRunner()
	result, err := runner.Run(context.Background(), "cat", nil,
		executor.WithInput("piped content"))
	require.NoError(t, err)
	assert.Equal(t, "piped content", result.Stdout)
}

func TestRunWithWorkingDir(t *testing.T) {
	dir := t.TempDir()
	runner := executor.NewRunner()
	result, err := runner.Run(context.Background(), "pwd", nil,
		executor.WithWorkingDir(dir))
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(result.Stdout))
}

func TestRunWithEnvVar(t *testing.T) {
	runner := executor.NewRunner()
	result, err := runner.Run(context.Background(), "sh",
		[]string{"-c", "echo $SHIPGATE_TEST_VAR"},
		executor.WithEnvVar("SHIPGATE_TEST_VAR", "present"))
	require.NoError(t, err)
	assert.Equal(t, "present", strings.TrimSpace(result.Stdout))
}

func TestRunTimeout(t *testing.T) {
	runner := executor.NewRunner()
	start := time.Now()
	_, err := runner.Run(context.Background(), "sleep", []string{"5"},
		executor.WithTimeout(100*time.Millisecond))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, err.Error(), "timed out")
}

func TestToolBindsProgram(t *testing.T) {
	fake := executor.NewFakeRunner()
	flutter := executor.NewTool(fake, "flutter")

	_, err := flutter.Run(context.Background(), "analyze")
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "flutter", calls[0].Program)
	assert.Equal(t, []string{"analyze"}, calls[0].Args)
}

func TestToolMergesBaseOptions(t *testing.T) {
	fake := executor.NewFakeRunner()
	tool := executor.NewTool(fake, "npm", executor.WithWorkingDir("/site"))

	_, err := tool.RunWith(context.Background(), []string{"run", "build"},
		executor.WithEnvVar("NODE_ENV", "production"))
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/site", calls[0].Options.WorkingDir)
	assert.Equal(t, "production", calls[0].Options.Env["NODE_ENV"])
}

func TestFakeRunnerScriptsByLeadingArg(t *testing.T) {
	fake := executor.NewFakeRunner(
		executor.Script{Program: "firebase", Arg: "deploy", Result: &executor.Result{Stdout: "deployed"}},
		executor.Script{Program: "firebase", Arg: "--version", Result: &executor.Result{Stdout: "13.0.2"}},
	)

	res, err := fake.Run(context.Background(), "firebase", []string{"--version"})
	require.NoError(t, err)
	assert.Equal(t, "13.0.2", res.Stdout)

	res, err = fake.Run(context.Background(), "firebase", []string{"deploy", "--only", "hosting"})
	require.NoError(t, err)
	assert.Equal(t, "deployed", res.Stdout)
}
