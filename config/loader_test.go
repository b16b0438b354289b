package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/shipgate/config"
	"github.com/shipgate/shipgate/environment"
	"github.com/shipgate/shipgate/errors"
	"github.com/shipgate/shipgate/fs"
)

func TestLoadDefaultsWithoutOverrideFile(t *testing.T) {
	cfg, err := config.Load(fs.NewInMemory(), config.DefaultPath)
	require.NoError(t, err)

	assert.Equal(t, "flutter-firebase-template", cfg.Project.ID)
	assert.Equal(t, "main", cfg.Project.Trunk)
	assert.Equal(t, "build/deploy", cfg.Build.StagingDir)
	assert.Equal(t, "app", cfg.Build.AppSubPath)
	assert.Equal(t, []string{"npm", "run", "build"}, cfg.Build.Site.Command)
	assert.Equal(t, "_test.dart", cfg.Gate.TestFileSuffix)
	assert.InDelta(t, 80, cfg.Gate.Coverage.Threshold, 0.001)
	assert.Equal(t, []string{".g.dart", ".freezed.dart"}, cfg.Gate.Coverage.Exclude)

	require.Len(t, cfg.Environments, 3)
	assert.Equal(t, environment.Development, cfg.Environments[0].Name)
	assert.True(t, cfg.Environments[0].AutoDeploy)
	assert.Equal(t, environment.Production, cfg.Environments[2].Name)
	assert.True(t, cfg.Environments[2].RequireConfirmation)
}

func TestLoadPartialOverride(t *testing.T) {
	fsys := fs.NewInMemory()
	override := `
project: id: "acme-website"
environments: production: target: "acme-prod"
`
	require.NoError(t, fsys.WriteFile(config.DefaultPath, []byte(override), 0o644))

	cfg, err := config.Load(fsys, config.DefaultPath)
	require.NoError(t, err)

	assert.Equal(t, "acme-website", cfg.Project.ID)
	// Untouched defaults survive the unification.
	assert.Equal(t, "main", cfg.Project.Trunk)

	prod, ok := cfg.Environment(environment.Production)
	require.True(t, ok)
	assert.Equal(t, "acme-prod", prod.Target)
	assert.True(t, prod.RequireConfirmation)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	fsys := fs.NewInMemory()
	require.NoError(t, fsys.WriteFile(config.DefaultPath, []byte("project: {"), 0o644))

	_, err := config.Load(fsys, config.DefaultPath)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestLoadRejectsConfirmationOffForProduction(t *testing.T) {
	fsys := fs.NewInMemory()
	// The schema pins requireConfirmation to true for production; an
	// override saying false must conflict.
	override := `environments: production: requireConfirmation: false`
	require.NoError(t, fsys.WriteFile(config.DefaultPath, []byte(override), 0o644))

	_, err := config.Load(fsys, config.DefaultPath)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestRegistryFromConfig(t *testing.T) {
	cfg, err := config.Load(fs.NewInMemory(), config.DefaultPath)
	require.NoError(t, err)

	registry, err := cfg.Registry()
	require.NoError(t, err)

	env, err := registry.Resolve(environment.Staging)
	require.NoError(t, err)
	assert.Equal(t, "site-staging", env.Target)
}
