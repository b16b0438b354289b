// Package config loads the pipeline configuration from CUE. An embedded
// schema supplies defaults for every field; an optional shipgate.cue file
// in the repository root unifies with the schema to override them.
package config

import (
	"github.com/shipgate/shipgate/environment"
)

// DefaultPath is the expected location of the override file, relative to
// the repository root.
const DefaultPath = "shipgate.cue"

// Config is the decoded pipeline configuration.
type Config struct {
	Project      Project
	Build        Build
	Gate         Gate
	Environments []environment.Environment
}

// Project identifies the deployed project.
type Project struct {
	// ID is the provider project identifier.
	ID string

	// Trunk is the primary branch; pushes to it get an informational
	// notice from the pre-push gate.
	Trunk string
}

// SubBuild describes one sub-project build.
type SubBuild struct {
	// Dir is the working directory for the build command.
	Dir string

	// Command is the builder invocation, program first.
	Command []string

	// Output is the directory the builder writes, relative to the
	// repository root.
	Output string
}

// Build configures the build orchestrator.
type Build struct {
	// StagingDir is the artifact tree the deploy publishes from.
	StagingDir string

	// AppSubPath is the fixed sub-path under which the application
	// bundle is nested inside the site tree.
	AppSubPath string

	// Site builds the static marketing site.
	Site SubBuild

	// App builds the client application bundle.
	App SubBuild
}

// Coverage configures the coverage report and its thresholds.
type Coverage struct {
	// File is the LCOV summary produced by the test run.
	File string

	// Threshold is the aggregate line-coverage percentage below which
	// the pre-push gate warns.
	Threshold float64

	// Exclude lists filename fragments identifying generated files.
	Exclude []string

	// Layers maps source layer names to their coverage targets.
	Layers map[string]float64
}

// Gate configures the quality-gate engine.
type Gate struct {
	// TestFileSuffix identifies test files among changed paths; a staged
	// change matching it triggers the pre-commit test run.
	TestFileSuffix string

	// Coverage is the coverage reporting configuration.
	Coverage Coverage
}

// Registry builds the immutable environment registry from the
// configured environment table.
func (c *Config) Registry() (*environment.Registry, error) {
	return environment.NewRegistry(c.Environments)
}

// Environment returns the configured definition for one environment.
func (c *Config) Environment(name environment.Name) (environment.Environment, bool) {
	for _, env := range c.Environments {
		if env.Name == name {
			return env, true
		}
	}
	return environment.Environment{}, false
}
