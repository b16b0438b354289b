// Package firebase adapts the Firebase CLI to the deploy provider
// interface. Every operation shells out to the locally installed
// firebase binary; nothing talks to Google APIs directly.
package firebase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/shipgate/shipgate/environment"
	"github.com/shipgate/shipgate/errors"
	"github.com/shipgate/shipgate/executor"
)

// MinVersion is the oldest Firebase CLI release the adapter supports.
// Older releases lack the non-interactive hosting-target flags the
// adapter depends on.
const MinVersion = ">= 12.0.0"

const (
	// publishTimeout bounds one provider call; functions deploys
	// legitimately take minutes.
	publishTimeout = 15 * time.Minute

	// versionTimeout bounds the version probe.
	versionTimeout = 30 * time.Second
)

// Config configures the CLI adapter.
type Config struct {
	// ProjectID is the Firebase project every command targets.
	ProjectID string

	// Token is an optional CI token, exported as FIREBASE_TOKEN for
	// every invocation. When empty the CLI uses its own login session.
	Token string
}

// CLI publishes resources through the firebase command-line tool.
type CLI struct {
	tool       *executor.Tool
	projectID  string
	token      string
	constraint *semver.Constraints

	versionOnce sync.Once
	versionErr  error
}

// New creates a Firebase CLI adapter backed by the given runner.
func New(runner executor.Runner, cfg Config) (*CLI, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "firebase project id must not be empty")
	}
	constraint, err := semver.NewConstraint(MinVersion)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "invalid version constraint")
	}
	return &CLI{
		tool:       executor.NewTool(runner, "firebase"),
		projectID:  cfg.ProjectID,
		token:      cfg.Token,
		constraint: constraint,
	}, nil
}

// PublishHosting implements deploy.Provider.
func (c *CLI) PublishHosting(ctx context.Context, env environment.Environment) error {
	return c.deploy(ctx, "hosting:"+env.Target)
}

// PublishRules implements deploy.Provider.
func (c *CLI) PublishRules(ctx context.Context, _ environment.Environment) error {
	return c.deploy(ctx, "firestore:rules")
}

// PublishFunctions implements deploy.Provider.
func (c *CLI) PublishFunctions(ctx context.Context, _ environment.Environment) error {
	return c.deploy(ctx, "functions")
}

// UploadAssets implements deploy.Provider.
func (c *CLI) UploadAssets(ctx context.Context, _ environment.Environment) error {
	return c.deploy(ctx, "storage")
}

// RegisterTarget binds the environment name to its hosting site via
// `firebase target:apply`. Re-applying an existing binding is a no-op
// on the Firebase side, so the call is idempotent.
func (c *CLI) RegisterTarget(ctx context.Context, env environment.Environment) error {
	if err := c.ensureVersion(ctx); err != nil {
		return err
	}
	args := []string{"target:apply", "hosting", string(env.Name), env.Target}
	args = append(args, c.commonArgs()...)
	result, err := c.tool.RunWith(ctx, args, c.runOptions()...)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeExecutionFailed,
			"failed to register hosting target",
			map[string]interface{}{
				"environment": string(env.Name),
				"target":      env.Target,
			})
	}
	if result.ExitCode != 0 {
		return errors.Newf(errors.CodeExecutionFailed,
			"firebase target:apply exited with code %d", result.ExitCode)
	}
	return nil
}

// Version reports the installed Firebase CLI version.
func (c *CLI) Version(ctx context.Context) (*semver.Version, error) {
	result, err := c.tool.RunWith(ctx, []string{"--version"},
		executor.WithCapture(true, false, false),
		executor.WithTimeout(versionTimeout))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeToolMissing,
			"firebase CLI not found; install it with 'npm install -g firebase-tools'")
	}
	raw := strings.TrimSpace(result.Stdout)
	version, err := semver.NewVersion(raw)
	if err != nil {
		return nil, errors.Newf(errors.CodeToolMissing,
			"cannot parse firebase CLI version %q", raw)
	}
	return version, nil
}

// ensureVersion gates the first provider call on a version check. The
// result is cached for the lifetime of the adapter.
func (c *CLI) ensureVersion(ctx context.Context) error {
	c.versionOnce.Do(func() {
		version, err := c.Version(ctx)
		if err != nil {
			c.versionErr = err
			return
		}
		if !c.constraint.Check(version) {
			c.versionErr = errors.Newf(errors.CodeToolMissing,
				"firebase CLI %s is too old, need %s; run 'npm update -g firebase-tools'",
				version, MinVersion)
		}
	})
	return c.versionErr
}

// deploy runs `firebase deploy --only <selector>` against the project.
func (c *CLI) deploy(ctx context.Context, selector string) error {
	if err := c.ensureVersion(ctx); err != nil {
		return err
	}
	args := []string{"deploy", "--only", selector}
	args = append(args, c.commonArgs()...)
	result, err := c.tool.RunWith(ctx, args, c.runOptions()...)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeExecutionFailed,
			"firebase deploy failed",
			map[string]interface{}{"selector": selector})
	}
	if result.ExitCode != 0 {
		return errors.Newf(errors.CodeExecutionFailed,
			"firebase deploy --only %s exited with code %d", selector, result.ExitCode)
	}
	return nil
}

func (c *CLI) commonArgs() []string {
	return []string{"--project", c.projectID, "--non-interactive"}
}

// runOptions streams the CLI output to the console so the operator sees
// deploy progress, bounds the call, and exports the CI token when one
// is configured.
func (c *CLI) runOptions() []executor.Option {
	opts := []executor.Option{
		executor.WithConsoleRedirect(),
		executor.WithTimeout(publishTimeout),
	}
	if c.token != "" {
		opts = append(opts, executor.WithEnvVar("FIREBASE_TOKEN", c.token))
	}
	return opts
}

// String names the adapter for log lines.
func (c *CLI) String() string {
	return fmt.Sprintf("firebase(%s)", c.projectID)
}
