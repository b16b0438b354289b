package build_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/shipgate/build"
	"github.com/shipgate/shipgate/config"
	"github.com/shipgate/shipgate/environment"
	shiperrors "github.com/shipgate/shipgate/errors"
	"github.com/shipgate/shipgate/executor"
	"github.com/shipgate/shipgate/fs"
)

func buildConfig() config.Build {
	return config.Build{
		StagingDir: "build/deploy",
		AppSubPath: "app",
		Site: config.SubBuild{
			Dir:     "website",
			Command: []string{"npm", "run", "build"},
			Output:  "website/public",
		},
		App: config.SubBuild{
			Dir:     ".",
			Command: []string{"flutter", "build", "web", "--release"},
			Output:  "build/web",
		},
	}
}

func devEnv() environment.Environment {
	return environment.Environment{
		Name:   environment.Development,
		Target: "site-dev",
		URL:    "https://site-dev.web.app",
	}
}

// seedOutputs pre-populates what the (faked) builders would write.
func seedOutputs(t *testing.T, fsys *fs.FS) {
	t.Helper()
	require.NoError(t, fsys.WriteFile("website/public/index.html", []byte("<html>site</html>"), 0o644))
	require.NoError(t, fsys.WriteFile("build/web/main.dart.js", []byte("app"), 0o644))
}

func TestRunInvokesBuildersInOrder(t *testing.T) {
	fsys := fs.NewInMemory()
	seedOutputs(t, fsys)
	runner := executor.NewFakeRunner()

	err := build.New(runner, fsys, buildConfig()).Run(context.Background(), devEnv())
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "npm", calls[0].Program)
	assert.Equal(t, "website", calls[0].Options.WorkingDir)
	assert.Equal(t, "flutter", calls[1].Program)
	assert.Equal(t, "development", calls[1].Options.Env["DEPLOY_ENVIRONMENT"])
	assert.Equal(t, "https://site-dev.web.app", calls[1].Options.Env["DEPLOY_BASE_URL"])
}

func TestRunMergesOutputsIntoStagingTree(t *testing.T) {
	fsys := fs.NewInMemory()
	seedOutputs(t, fsys)

	err := build.New(executor.NewFakeRunner(), fsys, buildConfig()).Run(context.Background(), devEnv())
	require.NoError(t, err)

	data, err := fsys.ReadFile("build/deploy/index.html")
	require.NoError(t, err)
	assert.Equal(t, "<html>site</html>", string(data))

	// The app bundle nests under the fixed sub-path.
	data, err = fsys.ReadFile("build/deploy/app/main.dart.js")
	require.NoError(t, err)
	assert.Equal(t, "app", string(data))
}

func TestRunCleansStagingFirst(t *testing.T) {
	fsys := fs.NewInMemory()
	seedOutputs(t, fsys)
	require.NoError(t, fsys.WriteFile("build/deploy/stale.txt", []byte("old"), 0o644))

	err := build.New(executor.NewFakeRunner(), fsys, buildConfig()).Run(context.Background(), devEnv())
	require.NoError(t, err)

	exists, err := fsys.Exists("build/deploy/stale.txt")
	require.NoError(t, err)
	assert.False(t, exists, "previous staging content must not accumulate")
}

func TestRunAbortsWhenSiteBuilderFails(t *testing.T) {
	fsys := fs.NewInMemory()
	seedOutputs(t, fsys)
	runner := executor.NewFakeRunner(executor.Script{
		Program: "npm",
		Err:     errors.New("exit status 1"),
	})

	err := build.New(runner, fsys, buildConfig()).Run(context.Background(), devEnv())
	require.Error(t, err)
	assert.Equal(t, shiperrors.CodeBuildFailed, shiperrors.GetCode(err))
	assert.Contains(t, err.Error(), "site")

	// The app builder never ran.
	assert.Empty(t, runner.CallsTo("flutter"))
}

func TestRunFailsWhenBuilderProducesNoOutput(t *testing.T) {
	fsys := fs.NewInMemory()
	// Only the site output exists; flutter writes nothing.
	require.NoError(t, fsys.WriteFile("website/public/index.html", []byte("x"), 0o644))

	err := build.New(executor.NewFakeRunner(), fsys, buildConfig()).Run(context.Background(), devEnv())
	require.Error(t, err)
	assert.Equal(t, shiperrors.CodeBuildFailed, shiperrors.GetCode(err))
	assert.Contains(t, err.Error(), "app")
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	cfg := buildConfig()
	cfg.Site.Command = nil

	err := build.New(executor.NewFakeRunner(), fs.NewInMemory(), cfg).Run(context.Background(), devEnv())
	require.Error(t, err)
	assert.Equal(t, shiperrors.CodeInvalidConfig, shiperrors.GetCode(err))
}

func TestVerifyArtifact(t *testing.T) {
	fsys := fs.NewInMemory()

	err := build.VerifyArtifact(fsys, "build/deploy")
	require.Error(t, err)
	assert.Equal(t, shiperrors.CodeMissingArtifact, shiperrors.GetCode(err))

	require.NoError(t, fsys.WriteFile("build/deploy/index.html", []byte("x"), 0o644))
	assert.NoError(t, build.VerifyArtifact(fsys, "build/deploy"))
}
