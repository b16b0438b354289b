package deploy

import (
	"context"

	"github.com/shipgate/shipgate/environment"
)

// Provider abstracts the remote hosting/database/functions service.
// Every call blocks until the provider reports a definitive result;
// publishes are assumed to be idempotent overwrites on the provider
// side, so a re-run after a partial failure is safe.
type Provider interface {
	// PublishHosting publishes the artifact tree to the environment's
	// hosting target.
	PublishHosting(ctx context.Context, env environment.Environment) error

	// PublishRules publishes the data-access rules.
	PublishRules(ctx context.Context, env environment.Environment) error

	// PublishFunctions publishes the serverless functions.
	PublishFunctions(ctx context.Context, env environment.Environment) error

	// UploadAssets uploads the static asset bucket content.
	UploadAssets(ctx context.Context, env environment.Environment) error

	// RegisterTarget binds an environment to its hosting target on the
	// provider. Must be idempotent.
	RegisterTarget(ctx context.Context, env environment.Environment) error
}

// Builder produces the artifact tree for an environment. Satisfied by
// the build orchestrator.
type Builder interface {
	Run(ctx context.Context, env environment.Environment) error
}
