// Package executor runs the external tools the pipeline depends on (git,
// flutter, npm, firebase) with output capture, environment variable
// management, and bounded timeouts. The pipeline never retries a failed
// command; the operator re-invokes after fixing the cause.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Result holds the output and exit status from a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
}

// Runner is the interface pipeline components depend on. Tests substitute
// a scripted implementation so no real process is spawned.
type Runner interface {
	// Run executes program with args and the given options.
	Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error)
}

// Options configures command execution behavior.
type Options struct {
	// Output handling.
	CaptureStdout     bool
	CaptureStderr     bool
	CaptureCombined   bool
	RedirectToConsole bool

	// Working directory for the command; empty means inherit.
	WorkingDir string

	// Environment variables appended to the current environment.
	Env map[string]string

	// Stdin content for the command; empty means no input.
	Input string

	// Timeout bounds the command; zero means no bound beyond ctx.
	Timeout time.Duration

	// Custom writers for streaming output (in addition to capture).
	StdoutWriter io.Writer
	StderrWriter io.Writer
}

// Option is a function that modifies Options.
type Option func(*Options)

// DefaultOptions returns the default execution options: capture both
// streams, no console redirect, no timeout.
func DefaultOptions() *Options {
	return &Options{
		CaptureStdout: true,
		CaptureStderr: true,
		Env:           make(map[string]string),
	}
}

// Exec is the production Runner backed by os/exec.
type Exec struct{}

// NewRunner returns the production command runner.
func NewRunner() *Exec {
	return &Exec{}
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, program, args...)
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}
	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	if options.Input != "" {
		cmd.Stdin = strings.NewReader(options.Input)
	}

	var stdoutBuf, stderrBuf, combinedBuf bytes.Buffer
	cmd.Stdout = buildWriter(&stdoutBuf, &combinedBuf, os.Stdout, options.StdoutWriter,
		options.CaptureStdout, options.CaptureCombined, options.RedirectToConsole)
	cmd.Stderr = buildWriter(&stderrBuf, &combinedBuf, os.Stderr, options.StderrWriter,
		options.CaptureStderr, options.CaptureCombined, options.RedirectToConsole)

	err := cmd.Run()
	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Combined: combinedBuf.String(),
		ExitCode: exitCode(err),
	}
	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("command %s timed out or was cancelled: %w", program, ctx.Err())
		}
		return result, fmt.Errorf("command %s failed: %w", program, err)
	}
	return result, nil
}

// buildWriter assembles the writer stack for one output stream.
func buildWriter(capture, combined *bytes.Buffer, console io.Writer, custom io.Writer,
	doCapture, doCombined, doConsole bool,
) io.Writer {
	writers := []io.Writer{}
	if doCombined {
		writers = append(writers, combined)
	} else if doCapture {
		writers = append(writers, capture)
	}
	if doConsole {
		writers = append(writers, console)
	}
	if custom != nil {
		writers = append(writers, custom)
	}
	if len(writers) == 0 {
		return io.Discard
	}
	return io.MultiWriter(writers...)
}

// exitCode derives the process exit code from the run error. A command
// that could not start at all reports -1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Tool binds a Runner to a single program so call sites read naturally:
// flutter.Run(ctx, "analyze").
type Tool struct {
	runner  Runner
	program string
	base    []Option
}

// NewTool creates a Tool for the given program. The base options apply to
// every invocation and can be extended per call.
func NewTool(runner Runner, program string, base ...Option) *Tool {
	return &Tool{runner: runner, program: program, base: base}
}

// Program returns the bound program name.
func (t *Tool) Program() string {
	return t.program
}

// Run executes the bound program with the given arguments.
func (t *Tool) Run(ctx context.Context, args ...string) (*Result, error) {
	return t.runner.Run(ctx, t.program, args, t.base...)
}

// RunWith executes the bound program with extra per-call options.
func (t *Tool) RunWith(ctx context.Context, args []string, opts ...Option) (*Result, error) {
	merged := make([]Option, 0, len(t.base)+len(opts))
	merged = append(merged, t.base...)
	merged = append(merged, opts...)
	return t.runner.Run(ctx, t.program, args, merged...)
}

// Option functions for fluent configuration.

// WithCapture configures output capture.
func WithCapture(stdout, stderr, combined bool) Option {
	return func(o *Options) {
		o.CaptureStdout = stdout
		o.CaptureStderr = stderr
		o.CaptureCombined = combined
	}
}

// WithConsoleRedirect streams output to the console while still capturing.
func WithConsoleRedirect() Option {
	return func(o *Options) {
		o.RedirectToConsole = true
	}
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds environment variables.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithInput provides stdin content for the command.
func WithInput(input string) Option {
	return func(o *Options) {
		o.Input = input
	}
}

// WithTimeout bounds the command execution time.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithStdoutWriter adds a custom stdout writer.
func WithStdoutWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StdoutWriter = w
	}
}

// WithStderrWriter adds a custom stderr writer.
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StderrWriter = w
	}
}
