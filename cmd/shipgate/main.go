// Command shipgate is the deployment pipeline front door: it drives the
// version-control quality gates, builds the artifact tree, and publishes
// it to the hosting provider.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/shipgate/shipgate/auth"
	"github.com/shipgate/shipgate/build"
	"github.com/shipgate/shipgate/config"
	"github.com/shipgate/shipgate/coverage"
	"github.com/shipgate/shipgate/deploy"
	"github.com/shipgate/shipgate/environment"
	"github.com/shipgate/shipgate/errors"
	"github.com/shipgate/shipgate/executor"
	"github.com/shipgate/shipgate/fs"
	"github.com/shipgate/shipgate/gate"
	"github.com/shipgate/shipgate/provider/firebase"
	"github.com/shipgate/shipgate/vcs"
)

// version is stamped by the release build.
var version = "dev"

// Exit codes, one family per failure class so shell wrappers and CI can
// branch on them.
const (
	exitOK              = 0
	exitFailure         = 1
	exitInvalidInput    = 2
	exitGateFailed      = 3
	exitBuildFailed     = 4
	exitPublishFailed   = 5
	exitMissingArtifact = 6
	exitUserCancelled   = 10
)

const usage = `shipgate drives the build, quality-gate and deploy pipeline.

Usage:
  shipgate deploy <environment> [--rules] [--functions] [--assets] [--all] [--skip-build]
  shipgate build <environment>
  shipgate register-targets
  shipgate hook pre-commit|pre-push
  shipgate hook commit-msg <message-file>
  shipgate install-hooks
  shipgate coverage [--json] [--ci]
  shipgate auth login [--token <token>] | logout
  shipgate version

Environments: development, staging, production.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches one invocation and maps its error to an exit code.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(errOut, usage)
		return exitInvalidInput
	}

	a := &app{out: out, errOut: errOut, runner: executor.NewRunner()}

	var err error
	switch args[0] {
	case "deploy":
		err = a.deploy(ctx, args[1:])
	case "build":
		err = a.build(ctx, args[1:])
	case "register-targets":
		err = a.registerTargets(ctx)
	case "hook":
		err = a.hook(ctx, args[1:])
	case "install-hooks":
		err = a.installHooks()
	case "coverage":
		err = a.coverage(args[1:])
	case "auth":
		err = a.auth(args[1:])
	case "version":
		fmt.Fprintf(out, "shipgate %s\n", version)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
	default:
		fmt.Fprintf(errOut, "unknown command %q\n\n", args[0])
		fmt.Fprint(errOut, usage)
		return exitInvalidInput
	}

	if err != nil {
		fmt.Fprintf(errOut, "shipgate: %s\n", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps an error's classification to the exit code family.
func exitCode(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeInvalidConfig,
		errors.CodeUnknownEnvironment, errors.CodeInvalidCommitMessage:
		return exitInvalidInput
	case errors.CodeGateFailed:
		return exitGateFailed
	case errors.CodeBuildFailed:
		return exitBuildFailed
	case errors.CodePublishFailed:
		return exitPublishFailed
	case errors.CodeMissingArtifact:
		return exitMissingArtifact
	case errors.CodeUserCancelled:
		return exitUserCancelled
	default:
		return exitFailure
	}
}

// app wires the pipeline components lazily, so commands that need no
// configuration (version, help) never touch the filesystem.
type app struct {
	out    io.Writer
	errOut io.Writer
	runner executor.Runner

	fsys *fs.FS
	cfg  *config.Config
}

// loadConfig opens the working tree and reads the pipeline
// configuration. Commands run from the repository root, as git hooks do.
func (a *app) loadConfig() error {
	if a.cfg != nil {
		return nil
	}
	a.fsys = fs.NewOS(".")
	cfg, err := config.Load(a.fsys, config.DefaultPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) gateEngine() (*gate.Engine, error) {
	repo, err := vcs.Open(".")
	if err != nil {
		return nil, err
	}
	return gate.New(gate.Params{
		Runner:     a.runner,
		Repo:       repo,
		FS:         a.fsys,
		Config:     a.cfg.Gate,
		Trunk:      a.cfg.Project.Trunk,
		ForceTests: os.Getenv(gate.EnvForceTests) != "",
	}), nil
}

func (a *app) provider() (*firebase.CLI, error) {
	return firebase.New(a.runner, firebase.Config{
		ProjectID: a.cfg.Project.ID,
		Token:     auth.ResolveToken(),
	})
}

// parseDeployRequest parses the deploy arguments. The environment
// argument may come before or after the flags; stdlib flag parsing
// stops at the first non-flag argument, so a leading positional is
// peeled off first.
func parseDeployRequest(args []string, errOut io.Writer) (deploy.Request, error) {
	flags := flag.NewFlagSet("deploy", flag.ContinueOnError)
	flags.SetOutput(errOut)
	rules := flags.Bool("rules", false, "also publish data-access rules")
	functions := flags.Bool("functions", false, "also publish serverless functions")
	assets := flags.Bool("assets", false, "also upload static assets")
	all := flags.Bool("all", false, "publish every resource")
	skipBuild := flags.Bool("skip-build", false, "deploy the existing artifact tree")

	var positional []string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional = append(positional, args[0])
		args = args[1:]
	}
	if err := flags.Parse(args); err != nil {
		return deploy.Request{}, errors.Wrap(err, errors.CodeInvalidInput, "invalid deploy flags")
	}
	positional = append(positional, flags.Args()...)
	if len(positional) != 1 {
		return deploy.Request{}, errors.New(errors.CodeInvalidInput,
			"deploy needs exactly one environment argument")
	}

	resources := deploy.Resources{Rules: *rules, Functions: *functions, Assets: *assets}
	if *all {
		resources = deploy.All()
	}
	return deploy.Request{
		Environment: positional[0],
		Resources:   resources,
		SkipBuild:   *skipBuild,
	}, nil
}

func (a *app) deploy(ctx context.Context, args []string) error {
	req, err := parseDeployRequest(args, a.errOut)
	if err != nil {
		return err
	}

	if err := a.loadConfig(); err != nil {
		return err
	}
	registry, err := a.cfg.Registry()
	if err != nil {
		return err
	}
	provider, err := a.provider()
	if err != nil {
		return err
	}
	engine, err := a.gateEngine()
	if err != nil {
		return err
	}

	orchestrator := deploy.New(deploy.Options{
		Registry:   registry,
		Provider:   provider,
		Builder:    build.New(a.runner, a.fsys, a.cfg.Build),
		Gate:       engine,
		Confirmer:  deploy.NewTerminalConfirmer(),
		FS:         a.fsys,
		StagingDir: a.cfg.Build.StagingDir,
		Out:        a.out,
	})
	_, err = orchestrator.Deploy(ctx, req)
	return err
}

func (a *app) build(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New(errors.CodeInvalidInput, "build needs exactly one environment argument")
	}
	if err := a.loadConfig(); err != nil {
		return err
	}
	registry, err := a.cfg.Registry()
	if err != nil {
		return err
	}
	name, err := environment.Parse(args[0])
	if err != nil {
		return err
	}
	env, err := registry.Resolve(name)
	if err != nil {
		return err
	}
	if err := build.New(a.runner, a.fsys, a.cfg.Build).Run(ctx, env); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "artifact tree ready in %s\n", a.cfg.Build.StagingDir)
	return nil
}

// registerTargets binds every configured environment to its hosting
// target, on the provider and in the registry. Safe to re-run.
func (a *app) registerTargets(ctx context.Context) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	registry, err := a.cfg.Registry()
	if err != nil {
		return err
	}
	provider, err := a.provider()
	if err != nil {
		return err
	}
	return registerTargets(ctx, registry, provider, a.out)
}

func registerTargets(ctx context.Context, registry *environment.Registry, provider deploy.Provider, out io.Writer) error {
	for _, env := range registry.List() {
		if err := provider.RegisterTarget(ctx, env); err != nil {
			return err
		}
		if err := registry.Register(env.Name, env.Target); err != nil {
			return err
		}
		fmt.Fprintf(out, "registered %s -> %s\n", env.Name, env.Target)
	}
	return nil
}

// hook runs one git lifecycle gate. Blocking issues become a gate
// failure so the hook's exit code stops the git operation.
func (a *app) hook(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(errors.CodeInvalidInput, "hook needs an event: pre-commit, pre-push or commit-msg")
	}
	if err := a.loadConfig(); err != nil {
		return err
	}
	engine, err := a.gateEngine()
	if err != nil {
		return err
	}

	var issues []gate.Issue
	switch args[0] {
	case "pre-commit":
		issues, err = engine.PreCommit(ctx)
	case "pre-push":
		issues, err = engine.PrePush(ctx)
	case "commit-msg":
		if len(args) != 2 {
			return errors.New(errors.CodeInvalidInput, "commit-msg needs the message file path")
		}
		// git may pass a path outside the working tree root.
		message, readErr := os.ReadFile(args[1])
		if readErr != nil {
			return errors.Wrap(readErr, errors.CodeInvalidInput, "failed to read commit message file")
		}
		issues = engine.CommitMsg(string(message))
		if gate.Blocking(issues) {
			reportIssues(a.errOut, issues)
			return errors.New(errors.CodeInvalidCommitMessage, "commit message rejected")
		}
		return nil
	default:
		return errors.Newf(errors.CodeInvalidInput, "unknown hook event %q", args[0])
	}
	if err != nil {
		return err
	}

	reportIssues(a.errOut, issues)
	if gate.Blocking(issues) {
		return errors.Newf(errors.CodeGateFailed, "%s checks failed", args[0])
	}
	return nil
}

func reportIssues(w io.Writer, issues []gate.Issue) {
	// Reporting is best effort; the exit code carries the verdict.
	_ = gate.NewReporter(w).Report(issues)
}

func (a *app) coverage(args []string) error {
	flags := flag.NewFlagSet("coverage", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	asJSON := flags.Bool("json", false, "emit the report as JSON")
	ci := flags.Bool("ci", false, "fail when the threshold or a layer target is missed")
	if err := flags.Parse(args); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "invalid coverage flags")
	}

	if err := a.loadConfig(); err != nil {
		return err
	}
	cov := a.cfg.Gate.Coverage
	report, err := coverage.Parse(a.fsys, cov.File, coverage.Options{
		Exclude:   cov.Exclude,
		Layers:    cov.Layers,
		Threshold: cov.Threshold,
	})
	if err != nil {
		return err
	}

	format := coverage.FormatText
	if *asJSON {
		format = coverage.FormatJSON
	}
	if err := coverage.NewReporter(a.out, format).Report(report); err != nil {
		return err
	}

	if *ci && !report.MeetsTargets() {
		return errors.New(errors.CodeGateFailed, "coverage targets not met")
	}
	return nil
}

func (a *app) auth(args []string) error {
	if len(args) == 0 {
		return errors.New(errors.CodeInvalidInput, "auth needs a subcommand: login or logout")
	}
	switch args[0] {
	case "login":
		flags := flag.NewFlagSet("auth login", flag.ContinueOnError)
		flags.SetOutput(a.errOut)
		token := flags.String("token", "", "provider CI token; prompted for when omitted")
		if err := flags.Parse(args[1:]); err != nil {
			return errors.Wrap(err, errors.CodeInvalidInput, "invalid auth flags")
		}
		value := *token
		if value == "" {
			var err error
			value, err = promptToken(a.out)
			if err != nil {
				return err
			}
		}
		if err := auth.StoreToken(value); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "token stored")
		return nil
	case "logout":
		if err := auth.DeleteToken(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "token removed")
		return nil
	default:
		return errors.Newf(errors.CodeInvalidInput, "unknown auth subcommand %q", args[0])
	}
}

// promptToken reads the token without echo on a terminal, or as a plain
// line when stdin is piped.
func promptToken(out io.Writer) (string, error) {
	fmt.Fprint(out, "token: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeInvalidInput, "failed to read token")
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, errors.CodeInvalidInput, "failed to read token")
	}
	return strings.TrimSpace(line), nil
}
