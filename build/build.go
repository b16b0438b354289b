// Package build assembles the deployable artifact tree: the static site
// output with the application bundle nested under a fixed sub-path.
package build

import (
	"context"
	"fmt"
	"path"

	"github.com/shipgate/shipgate/config"
	"github.com/shipgate/shipgate/environment"
	"github.com/shipgate/shipgate/errors"
	"github.com/shipgate/shipgate/executor"
	"github.com/shipgate/shipgate/fs"
)

// Orchestrator runs the sub-project builders and merges their outputs
// into the staging artifact tree.
type Orchestrator struct {
	runner executor.Runner
	fsys   *fs.FS
	cfg    config.Build
}

// New creates a build orchestrator.
func New(runner executor.Runner, fsys *fs.FS, cfg config.Build) *Orchestrator {
	return &Orchestrator{runner: runner, fsys: fsys, cfg: cfg}
}

// Run produces the artifact tree for one environment. The staging
// directory is removed first so every build starts from a clean tree;
// after a failure the tree may be partial and must not be deployed.
func (o *Orchestrator) Run(ctx context.Context, env environment.Environment) error {
	if err := o.fsys.RemoveAll(o.cfg.StagingDir); err != nil {
		return errors.Wrap(err, errors.CodeBuildFailed, "failed to clean staging directory")
	}

	if err := o.runSubBuild(ctx, "site", o.cfg.Site, env); err != nil {
		return err
	}
	if err := o.runSubBuild(ctx, "app", o.cfg.App, env); err != nil {
		return err
	}

	if err := o.fsys.CopyDir(o.cfg.Site.Output, o.cfg.StagingDir); err != nil {
		return errors.Wrap(err, errors.CodeBuildFailed, "failed to stage site output")
	}
	appDst := path.Join(o.cfg.StagingDir, o.cfg.AppSubPath)
	if err := o.fsys.CopyDir(o.cfg.App.Output, appDst); err != nil {
		return errors.Wrap(err, errors.CodeBuildFailed, "failed to stage app bundle")
	}
	return nil
}

// runSubBuild invokes one sub-project builder and verifies it produced
// output. The target environment rides along in the builder's
// environment variables so relative asset references and API hosts
// resolve for that environment.
func (o *Orchestrator) runSubBuild(ctx context.Context, name string, sub config.SubBuild, env environment.Environment) error {
	if len(sub.Command) == 0 {
		return errors.Newf(errors.CodeInvalidConfig, "%s build has no command", name)
	}

	_, err := o.runner.Run(ctx, sub.Command[0], sub.Command[1:],
		executor.WithWorkingDir(sub.Dir),
		executor.WithConsoleRedirect(),
		executor.WithEnv(map[string]string{
			"DEPLOY_ENVIRONMENT": string(env.Name),
			"DEPLOY_BASE_URL":    env.URL,
		}),
	)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeBuildFailed,
			fmt.Sprintf("%s builder failed", name),
			map[string]interface{}{"sub_project": name, "environment": string(env.Name)})
	}

	empty, err := o.fsys.IsEmptyDir(sub.Output)
	if err != nil {
		return errors.Wrap(err, errors.CodeBuildFailed, "failed to inspect builder output")
	}
	if empty {
		return errors.Newf(errors.CodeBuildFailed,
			"%s builder produced no output in %s", name, sub.Output)
	}
	return nil
}

// VerifyArtifact checks that a previously built artifact tree exists and
// is non-empty. Used by deploys that skip the build.
func VerifyArtifact(fsys *fs.FS, stagingDir string) error {
	empty, err := fsys.IsEmptyDir(stagingDir)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to inspect artifact tree")
	}
	if empty {
		return errors.Newf(errors.CodeMissingArtifact,
			"artifact tree %s is missing or empty; run 'shipgate build' first", stagingDir)
	}
	return nil
}
