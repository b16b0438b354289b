// Package environment defines the closed set of deployment environments
// and the registry that binds each one to a concrete hosting target.
package environment

import (
	"github.com/shipgate/shipgate/errors"
)

// Name identifies one of the fixed deployment environments.
type Name string

const (
	// Development receives every merge to the develop branch.
	Development Name = "development"

	// Staging is the pre-production environment.
	Staging Name = "staging"

	// Production is the live environment. It always requires interactive
	// confirmation before deploying.
	Production Name = "production"
)

// Names lists the closed set in promotion order.
func Names() []Name {
	return []Name{Development, Staging, Production}
}

// Parse validates a raw environment name against the closed set.
func Parse(raw string) (Name, error) {
	switch Name(raw) {
	case Development, Staging, Production:
		return Name(raw), nil
	default:
		return "", errors.Newf(errors.CodeUnknownEnvironment,
			"unknown environment %q (expected development, staging, or production)", raw)
	}
}

// Environment describes one deployment destination and its policy.
type Environment struct {
	// Name is the logical environment name.
	Name Name

	// Branch is the source branch that feeds this environment.
	Branch string

	// Target is the hosting target identifier registered with the provider.
	Target string

	// URL is the public base URL once deployed.
	URL string

	// AutoDeploy indicates the environment deploys automatically when its
	// branch is published.
	AutoDeploy bool

	// RequireConfirmation indicates an interactive confirmation gate must
	// pass before any publish call.
	RequireConfirmation bool
}
