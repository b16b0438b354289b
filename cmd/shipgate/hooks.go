package main

import (
	"fmt"

	"github.com/shipgate/shipgate/errors"
)

// hookEvents are the git lifecycle events the gate engine covers.
var hookEvents = []string{"pre-commit", "pre-push", "commit-msg"}

// installHooks writes a thin wrapper for every covered event into
// .git/hooks. Existing hooks for those events are overwritten; the
// wrappers delegate to the shipgate binary on PATH so upgrading the
// binary upgrades the hooks.
func (a *app) installHooks() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	isDir, err := a.fsys.IsDir(".git")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to probe .git")
	}
	if !isDir {
		return errors.New(errors.CodeInvalidInput, "not a git repository; run from the repository root")
	}

	for _, event := range hookEvents {
		path := ".git/hooks/" + event
		if err := a.fsys.WriteFile(path, []byte(hookScript(event)), 0o755); err != nil {
			return errors.WrapWithContext(err, errors.CodeInternal,
				"failed to install hook", map[string]interface{}{"hook": event})
		}
		fmt.Fprintf(a.out, "installed %s\n", path)
	}
	return nil
}

// hookScript renders the wrapper for one event. commit-msg receives the
// message file path as its first argument; the others take none.
func hookScript(event string) string {
	return fmt.Sprintf(`#!/bin/sh
# Installed by 'shipgate install-hooks'. Edits here are overwritten on
# the next install.
exec shipgate hook %s "$@"
`, event)
}
