// Package deploy executes deployment jobs: an ordered, fail-fast
// sequence of resource-publish steps against the hosting provider,
// gated by an interactive confirmation for production.
package deploy

import (
	"time"

	"github.com/shipgate/shipgate/environment"
	"github.com/shipgate/shipgate/errors"
)

// Resource is one category of remote state being published.
type Resource string

const (
	// ResourceHosting is the hosting content publish. Always runs.
	ResourceHosting Resource = "hosting"
	// ResourceRules is the data-access rules publish.
	ResourceRules Resource = "rules"
	// ResourceFunctions is the serverless functions publish.
	ResourceFunctions Resource = "functions"
	// ResourceAssets is the static asset upload.
	ResourceAssets Resource = "assets"
)

// Resources selects the optional publish steps for one job. Hosting is
// implicit and always published.
type Resources struct {
	Rules     bool
	Functions bool
	Assets    bool
}

// All returns a Resources with every optional step enabled.
func All() Resources {
	return Resources{Rules: true, Functions: true, Assets: true}
}

// State is a deployment job lifecycle state.
type State string

const (
	StateCreated             State = "created"
	StateConfirming          State = "confirming"
	StateBuilding            State = "building"
	StatePublishingHosting   State = "publishing-hosting"
	StatePublishingRules     State = "publishing-rules"
	StatePublishingFunctions State = "publishing-functions"
	StatePublishingAssets    State = "publishing-assets"
	StateSucceeded           State = "succeeded"
	StateFailed              State = "failed"
	StateAborted             State = "aborted-by-user"
)

// transitions lists the legal forward edges. Any non-terminal state may
// additionally transition to StateFailed; only StateConfirming may
// transition to StateAborted.
var transitions = map[State][]State{
	StateCreated:             {StateConfirming, StateBuilding, StatePublishingHosting},
	StateConfirming:          {StateBuilding, StatePublishingHosting, StateAborted},
	StateBuilding:            {StatePublishingHosting},
	StatePublishingHosting:   {StatePublishingRules, StatePublishingFunctions, StatePublishingAssets, StateSucceeded},
	StatePublishingRules:     {StatePublishingFunctions, StatePublishingAssets, StateSucceeded},
	StatePublishingFunctions: {StatePublishingAssets, StateSucceeded},
	StatePublishingAssets:    {StateSucceeded},
}

// StepOutcome is the tagged result of one job step.
type StepOutcome int

const (
	// OutcomeSucceeded means the step completed.
	OutcomeSucceeded StepOutcome = iota
	// OutcomeFailed means the step failed and halted the job.
	OutcomeFailed
	// OutcomeSkipped means the step was not requested.
	OutcomeSkipped
)

// String returns the outcome label.
func (o StepOutcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// StepResult records one executed (or skipped) step.
type StepResult struct {
	Resource Resource
	Outcome  StepOutcome
	Err      error
}

// Job is one deployment invocation. Jobs are created fresh per
// invocation and never persisted; there is no resumption state.
type Job struct {
	Environment environment.Environment
	Resources   Resources
	SkipBuild   bool
	CreatedAt   time.Time

	state State
	steps []StepResult

	// FailedResource names the step the job halted at, if any.
	FailedResource Resource
}

// NewJob creates a job in the created state.
func NewJob(env environment.Environment, resources Resources, skipBuild bool) *Job {
	return &Job{
		Environment: env,
		Resources:   resources,
		SkipBuild:   skipBuild,
		CreatedAt:   time.Now(),
		state:       StateCreated,
	}
}

// State returns the job's current state.
func (j *Job) State() State {
	return j.state
}

// Steps returns the recorded step results in execution order.
func (j *Job) Steps() []StepResult {
	return append([]StepResult(nil), j.steps...)
}

// transition moves the job along a legal forward edge.
func (j *Job) transition(to State) error {
	for _, next := range transitions[j.state] {
		if next == to {
			j.state = to
			return nil
		}
	}
	return errors.Newf(errors.CodeInternal,
		"illegal job transition %s -> %s", j.state, to)
}

// fail moves the job to the failed terminal state, recording the
// resource it halted at.
func (j *Job) fail(resource Resource, err error) {
	j.state = StateFailed
	j.FailedResource = resource
	j.steps = append(j.steps, StepResult{Resource: resource, Outcome: OutcomeFailed, Err: err})
}

// abort moves the job to the aborted terminal state. Legal only while
// confirming, before any mutating call has been issued.
func (j *Job) abort() error {
	return j.transition(StateAborted)
}

func (j *Job) recordSuccess(resource Resource) {
	j.steps = append(j.steps, StepResult{Resource: resource, Outcome: OutcomeSucceeded})
}

func (j *Job) recordSkip(resource Resource) {
	j.steps = append(j.steps, StepResult{Resource: resource, Outcome: OutcomeSkipped})
}
