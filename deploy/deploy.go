package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/shipgate/shipgate/build"
	"github.com/shipgate/shipgate/environment"
	"github.com/shipgate/shipgate/errors"
	"github.com/shipgate/shipgate/fs"
	"github.com/shipgate/shipgate/gate"
)

// PrePublishGate runs the pre-publish quality checks before a
// production deploy builds anything. Satisfied by the gate engine.
type PrePublishGate interface {
	PrePush(ctx context.Context) ([]gate.Issue, error)
}

// Options assembles an Orchestrator. Gate may be nil when no quality
// gate is available (the production path then refuses to deploy).
type Options struct {
	Registry   *environment.Registry
	Provider   Provider
	Builder    Builder
	Gate       PrePublishGate
	Confirmer  Confirmer
	FS         *fs.FS
	StagingDir string

	// Out receives progress lines. Defaults to io.Discard.
	Out io.Writer
}

// Orchestrator executes deployment jobs one at a time. It holds no
// cross-job state; concurrent invocations against the same working
// directory are not supported.
type Orchestrator struct {
	opts Options
}

// Request describes one deploy invocation.
type Request struct {
	// Environment is the raw environment name from the command line.
	Environment string

	// Resources selects the optional publish steps.
	Resources Resources

	// SkipBuild deploys a previously built artifact tree.
	SkipBuild bool
}

// Report summarizes a finished job.
type Report struct {
	Job *Job

	// URL is the public base URL of the deployed environment.
	URL string

	// Published lists the resources that were published, in order.
	Published []Resource
}

// New creates a deploy orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Orchestrator{opts: opts}
}

// Deploy runs one deployment job to a terminal state. The returned
// report is valid even on failure and names the step the job halted at;
// the error classifies the failure for exit-code mapping.
func (o *Orchestrator) Deploy(ctx context.Context, req Request) (*Report, error) {
	name, err := environment.Parse(req.Environment)
	if err != nil {
		return nil, err
	}

	env, err := o.opts.Registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	job := NewJob(env, req.Resources, req.SkipBuild)
	report := &Report{Job: job, URL: env.URL}

	// Production gates: interactive confirmation first, then the
	// pre-publish quality checks. Both run before any artifact is
	// produced or any mutating call is issued.
	if env.RequireConfirmation {
		if err := o.confirm(job, env); err != nil {
			return report, err
		}
		if !req.SkipBuild {
			if err := o.runPrePublishGate(ctx, job); err != nil {
				return report, err
			}
		}
	}

	if err := o.prepareArtifact(ctx, job, env); err != nil {
		return report, err
	}

	if err := o.publish(ctx, job, env, report); err != nil {
		return report, err
	}

	if err := job.transition(StateSucceeded); err != nil {
		return report, err
	}
	fmt.Fprintf(o.opts.Out, "deployed %s: %s\n", env.Name, env.URL)
	return report, nil
}

// confirm runs the interactive production gate. Declining is a
// deliberate abort, not a failure.
func (o *Orchestrator) confirm(job *Job, env environment.Environment) error {
	if err := job.transition(StateConfirming); err != nil {
		return err
	}
	if o.opts.Confirmer == nil {
		job.state = StateFailed
		return errors.New(errors.CodeInternal, "no confirmer wired for a confirming environment")
	}
	prompt := fmt.Sprintf("Deploy to %s (%s)?", env.Name, env.URL)
	ok, err := o.opts.Confirmer.Confirm(prompt)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "confirmation prompt failed")
	}
	if !ok {
		if err := job.abort(); err != nil {
			return err
		}
		return errors.Newf(errors.CodeUserCancelled, "deploy to %s cancelled", env.Name)
	}
	return nil
}

// runPrePublishGate blocks a production deploy on the same checks the
// pre-push hook runs.
func (o *Orchestrator) runPrePublishGate(ctx context.Context, job *Job) error {
	if o.opts.Gate == nil {
		return errors.New(errors.CodeInternal, "no quality gate wired for production deploys")
	}
	fmt.Fprintln(o.opts.Out, "running pre-publish quality checks")
	issues, err := o.opts.Gate.PrePush(ctx)
	if err != nil {
		job.state = StateFailed
		return errors.Wrap(err, errors.CodeGateFailed, "pre-publish checks could not run")
	}
	if err := gate.NewReporter(o.opts.Out).Report(issues); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to report gate issues")
	}
	if gate.Blocking(issues) {
		job.state = StateFailed
		return errors.New(errors.CodeGateFailed,
			"pre-publish quality checks failed; fix the reported issues and re-run")
	}
	return nil
}

// prepareArtifact builds the artifact tree, or verifies a pre-existing
// one when the build is skipped. A build failure halts the job before
// any publish step.
func (o *Orchestrator) prepareArtifact(ctx context.Context, job *Job, env environment.Environment) error {
	if job.SkipBuild {
		if err := build.VerifyArtifact(o.opts.FS, o.opts.StagingDir); err != nil {
			job.state = StateFailed
			return err
		}
		return nil
	}

	if err := job.transition(StateBuilding); err != nil {
		return err
	}
	fmt.Fprintf(o.opts.Out, "building artifact tree for %s\n", env.Name)
	if err := o.opts.Builder.Run(ctx, env); err != nil {
		job.state = StateFailed
		return err
	}
	return nil
}

// publish executes the resource steps in the fixed order. The first
// failure halts the job; earlier steps are not rolled back.
func (o *Orchestrator) publish(ctx context.Context, job *Job, env environment.Environment, report *Report) error {
	steps := []struct {
		resource Resource
		state    State
		enabled  bool
		run      func(context.Context, environment.Environment) error
	}{
		{ResourceHosting, StatePublishingHosting, true, o.opts.Provider.PublishHosting},
		{ResourceRules, StatePublishingRules, job.Resources.Rules, o.opts.Provider.PublishRules},
		{ResourceFunctions, StatePublishingFunctions, job.Resources.Functions, o.opts.Provider.PublishFunctions},
		{ResourceAssets, StatePublishingAssets, job.Resources.Assets, o.opts.Provider.UploadAssets},
	}

	stepIndex := 0
	for _, step := range steps {
		if !step.enabled {
			job.recordSkip(step.resource)
			continue
		}
		stepIndex++
		if err := job.transition(step.state); err != nil {
			return err
		}
		fmt.Fprintf(o.opts.Out, "publishing %s\n", step.resource)
		if err := step.run(ctx, env); err != nil {
			job.fail(step.resource, err)
			return errors.WrapWithContext(err, errors.CodePublishFailed,
				fmt.Sprintf("%s publish failed", step.resource),
				map[string]interface{}{
					"step":        stepIndex,
					"resource":    string(step.resource),
					"environment": string(env.Name),
				})
		}
		job.recordSuccess(step.resource)
		report.Published = append(report.Published, step.resource)
	}
	return nil
}
