package executor

import (
	"context"
	"fmt"
	"sync"
)

// Call records one invocation observed by a FakeRunner.
type Call struct {
	Program string
	Args    []string
	Options Options
}

// Script defines the canned outcome for one program invocation matched by
// program name (and optionally a leading argument).
type Script struct {
	Program string
	// Arg, when non-empty, must match the first argument for this script
	// to apply. Lets tests distinguish "firebase deploy" from
	// "firebase target:apply".
	Arg    string
	Result *Result
	Err    error
}

// FakeRunner is a scripted Runner for tests. It records every call and
// answers from its script table; unscripted calls succeed with empty
// output so tests only script what they assert on.
type FakeRunner struct {
	mu      sync.Mutex
	scripts []Script
	calls   []Call
}

// NewFakeRunner creates a FakeRunner with the given scripts.
func NewFakeRunner(scripts ...Script) *FakeRunner {
	return &FakeRunner{scripts: scripts}
}

// Run implements Runner.
func (f *FakeRunner) Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context done before running %s: %w", program, err)
	}

	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Program: program, Args: append([]string(nil), args...), Options: *options})
	f.mu.Unlock()

	for _, s := range f.scripts {
		if s.Program != program {
			continue
		}
		if s.Arg != "" && (len(args) == 0 || args[0] != s.Arg) {
			continue
		}
		res := s.Result
		if res == nil {
			res = &Result{}
		}
		return res, s.Err
	}
	return &Result{}, nil
}

// Calls returns a copy of the recorded calls in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls for one program.
func (f *FakeRunner) CallsTo(program string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Program == program {
			out = append(out, c)
		}
	}
	return out
}
