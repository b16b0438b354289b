package environment

import (
	"github.com/shipgate/shipgate/errors"
)

// Registry is the immutable environment table loaded once at process
// start. It is passed explicitly to the orchestrators; there is no
// ambient global instance.
type Registry struct {
	environments map[Name]Environment
	bound        map[Name]string
}

// NewRegistry builds a registry from the configured environments and
// validates the table invariants: every name is from the closed set,
// exactly one environment is production, and production requires
// confirmation.
func NewRegistry(envs []Environment) (*Registry, error) {
	table := make(map[Name]Environment, len(envs))
	productionCount := 0
	for _, env := range envs {
		if _, err := Parse(string(env.Name)); err != nil {
			return nil, err
		}
		if _, dup := table[env.Name]; dup {
			return nil, errors.Newf(errors.CodeInvalidConfig,
				"environment %q is defined twice", env.Name)
		}
		if env.Target == "" {
			return nil, errors.Newf(errors.CodeInvalidConfig,
				"environment %q has no hosting target", env.Name)
		}
		if env.Name == Production {
			productionCount++
			if !env.RequireConfirmation {
				return nil, errors.New(errors.CodeInvalidConfig,
					"production must require confirmation")
			}
		}
		table[env.Name] = env
	}
	if productionCount != 1 {
		return nil, errors.Newf(errors.CodeInvalidConfig,
			"exactly one production environment required, found %d", productionCount)
	}
	return &Registry{
		environments: table,
		bound:        make(map[Name]string, len(table)),
	}, nil
}

// Resolve returns the environment bound to the given name.
func (r *Registry) Resolve(name Name) (Environment, error) {
	env, ok := r.environments[name]
	if !ok {
		return Environment{}, errors.Newf(errors.CodeUnknownEnvironment,
			"environment %q is not registered", name)
	}
	return env, nil
}

// Register records the hosting-target binding for an environment.
// Re-registering an already-bound environment is a no-op success; the
// bound target never changes after the first registration.
func (r *Registry) Register(name Name, target string) error {
	if _, ok := r.environments[name]; !ok {
		return errors.Newf(errors.CodeUnknownEnvironment,
			"cannot register unknown environment %q", name)
	}
	if _, already := r.bound[name]; already {
		return nil
	}
	r.bound[name] = target
	return nil
}

// Bound reports whether the environment's target has been registered and
// returns the bound target identifier.
func (r *Registry) Bound(name Name) (string, bool) {
	target, ok := r.bound[name]
	return target, ok
}

// List returns the registered environments in promotion order.
func (r *Registry) List() []Environment {
	out := make([]Environment, 0, len(r.environments))
	for _, name := range Names() {
		if env, ok := r.environments[name]; ok {
			out = append(out, env)
		}
	}
	return out
}
