// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package converge

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its combined output.
// A non-nil error means the command could not be spawned or exited non-zero.
type Runner interface {
	Run(ctx context.Context, path string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. The child inherits the process
// environment at spawn time, which is where environment overlays apply.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, path string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec // path and args come from configuration and the command builder
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, &ExecError{
			Path:   path,
			Args:   args,
			Output: strings.TrimSpace(string(out)),
			Err:    err,
		}
	}
	return out, nil
}

// ExecError is an ExecutionFailure: the plugin tool could not be spawned or
// returned a non-zero status.
type ExecError struct {
	Path   string
	Args   []string
	Output string
	Err    error
}

// Error implements error. Proxy passwords in the arguments are masked.
func (e *ExecError) Error() string {
	cmdline := strings.Join(append([]string{e.Path}, redactArgs(e.Args)...), " ")
	if e.Output == "" {
		return fmt.Sprintf("execution of '%s' failed: %v", cmdline, e.Err)
	}
	return fmt.Sprintf("execution of '%s' failed: %v: %s", cmdline, e.Err, e.Output)
}

// Unwrap returns the underlying exec error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

func redactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if key, _, ok := strings.Cut(a, "="); ok && strings.HasSuffix(key, ".proxyPassword") {
			a = key + "=xxxxx"
		}
		out[i] = a
	}
	return out
}
