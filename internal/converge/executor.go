// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package converge brings installed Elasticsearch plugins into agreement
// with declared desired state.
package converge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/esplugin/internal/command"
	"github.com/holomush/esplugin/internal/environ"
	"github.com/holomush/esplugin/internal/plugin"
	"github.com/holomush/esplugin/internal/version"
)

var tracer = otel.Tracer("esplugin/converge")

// Error codes for convergence failures.
const (
	CodeInstallFailed = "INSTALL_FAILED"
	CodeRemoveFailed  = "REMOVE_FAILED"
)

// Defaults for install retries.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 2 * time.Second
)

// Config holds resolved paths and policy for an Executor.
type Config struct {
	HomeDir string
	// PluginDir is scanned for installed plugins.
	PluginDir string
	// PluginTool is bin/elasticsearch-plugin, used in the modern era.
	PluginTool string
	// LegacyPluginTool is bin/plugin, used in the legacy and interim eras.
	LegacyPluginTool string
	// ESBinary is queried with --version when no version can be guessed.
	// Empty disables the probe.
	ESBinary string

	// Version is the explicit host version, if known.
	Version string
	// VersionCandidates are guessed from after Version, in order.
	VersionCandidates []string

	Attempts   int
	RetryDelay time.Duration
}

// Action is what convergence did for a record.
type Action string

// Convergence actions.
const (
	ActionNone    Action = "none"
	ActionInstall Action = "install"
	ActionRemove  Action = "remove"
)

// Result reports the outcome for one record.
type Result struct {
	Name     string
	Action   Action
	Attempts int
	Ensure   plugin.Ensure
	Version  string
	Err      error
}

// Executor converges desired plugin records on one host.
// Records are processed sequentially.
type Executor struct {
	cfg        Config
	registry   *plugin.Registry
	builder    *command.Builder
	runner     Runner
	newBackoff func() retry.Backoff
}

// Option configures an Executor.
type Option func(*Executor)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(e *Executor) {
		e.runner = r
	}
}

// WithBackoff replaces the install retry policy. The function is called once
// per install and must return a fresh backoff.
func WithBackoff(fn func() retry.Backoff) Option {
	return func(e *Executor) {
		e.newBackoff = fn
	}
}

// DefaultBackoff allows attempts tries in total with a fixed delay between them.
func DefaultBackoff(attempts int, delay time.Duration) retry.Backoff {
	if attempts < 1 {
		attempts = 1
	}
	return retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay)) //nolint:gosec // attempts >= 1
}

// New creates an Executor.
func New(cfg Config, opts ...Option) *Executor {
	if cfg.Attempts < 1 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	e := &Executor{
		cfg:      cfg,
		registry: plugin.NewRegistry(cfg.PluginDir),
		builder:  command.NewBuilder(cfg.HomeDir),
		runner:   ExecRunner{},
	}
	e.newBackoff = func() retry.Backoff {
		return DefaultBackoff(e.cfg.Attempts, e.cfg.RetryDelay)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run holds state fixed for one Converge call.
type run struct {
	id       ulid.ULID
	resolved version.Resolved
}

// Converge discovers installed plugins, binds them to the records and
// installs or removes plugins until each record's ensure holds.
//
// Records already in their desired state cause no command. The host version
// is resolved at most once per call, and only if some record needs a change;
// a resolution failure aborts the call before any command runs. Execution
// failures are reported per record in the results and joined into the
// returned error; remaining records are still converged.
func (e *Executor) Converge(ctx context.Context, desired []*plugin.DesiredState) (results []Result, err error) {
	r := &run{id: ulid.Make()}

	ctx, span := tracer.Start(ctx, "converge.run",
		trace.WithAttributes(
			attribute.String("converge.run_id", r.id.String()),
			attribute.Int("converge.records", len(desired)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err = e.registry.Prefetch(ctx, desired); err != nil {
		return nil, oops.With("run_id", r.id.String()).Wrapf(err, "discover installed plugins")
	}

	if needsChange(desired) {
		r.resolved, err = e.resolveVersion(ctx)
		if err != nil {
			return nil, oops.With("run_id", r.id.String()).Wrap(err)
		}
	}

	var errs []error
	for _, d := range desired {
		res := e.convergeOne(ctx, r, d)
		recordConvergence(res.Action, res.Err)
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

func needsChange(desired []*plugin.DesiredState) bool {
	for _, d := range desired {
		if d.WantPresent() != d.Installed() {
			return true
		}
	}
	return false
}

func (e *Executor) convergeOne(ctx context.Context, r *run, d *plugin.DesiredState) Result {
	res := Result{Name: d.Name, Action: ActionNone, Ensure: plugin.EnsureAbsent}
	if d.Installed() {
		res.Ensure = plugin.EnsurePresent
		res.Version = d.Current.Version
	}

	switch {
	case d.WantPresent() && !d.Installed():
		res.Action = ActionInstall
	case !d.WantPresent() && d.Installed():
		res.Action = ActionRemove
	default:
		slog.DebugContext(ctx, "plugin already converged",
			"run_id", r.id.String(),
			"plugin", d.Name,
			"ensure", res.Ensure)
		return res
	}

	ctx, span := tracer.Start(ctx, "converge.plugin",
		trace.WithAttributes(
			attribute.String("plugin.name", d.Name),
			attribute.String("plugin.action", string(res.Action)),
			attribute.String("es.version", r.resolved.String()),
			attribute.String("es.era", r.resolved.Era().String()),
		),
	)
	defer span.End()

	logger := slog.With(
		"run_id", r.id.String(),
		"plugin", d.Name,
		"es_version", r.resolved.String(),
		"era", r.resolved.Era().String(),
	)
	if len(d.Instances) > 0 {
		logger = logger.With("instances", d.Instances)
	}

	if res.Action == ActionInstall {
		res.Attempts, res.Err = e.install(ctx, logger, r.resolved, d)
	} else {
		res.Attempts, res.Err = e.remove(ctx, logger, r.resolved, d)
	}

	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		return res
	}

	if d.Current != nil {
		res.Ensure = plugin.EnsurePresent
		res.Version = d.Current.Version
	} else {
		res.Ensure = plugin.EnsureAbsent
		res.Version = ""
	}
	return res
}

func (e *Executor) toolFor(era version.Era) string {
	if era == version.EraModern {
		return e.cfg.PluginTool
	}
	return e.cfg.LegacyPluginTool
}

// invocation returns the tool, arguments and environment for op.
func (e *Executor) invocation(op command.Operation, resolved version.Resolved, d *plugin.DesiredState) (string, []string, environ.Overlay, error) {
	era := resolved.Era()
	args, err := e.builder.Build(op, era, d, resolved.BatchCapable())
	if err != nil {
		return "", nil, nil, err
	}
	env, err := e.builder.Environment(era, d)
	if err != nil {
		return "", nil, nil, err
	}
	return e.toolFor(era), args, env, nil
}

func (e *Executor) install(ctx context.Context, logger *slog.Logger, resolved version.Resolved, d *plugin.DesiredState) (int, error) {
	tool, args, env, err := e.invocation(command.OpInstall, resolved, d)
	if err != nil {
		return 0, oops.Code(CodeInstallFailed).With("plugin", d.Name).Wrap(err)
	}

	logger.InfoContext(ctx, "installing plugin",
		"tool", tool,
		"env", env.Keys())

	attempts := 0
	err = retry.Do(ctx, e.newBackoff(), func(ctx context.Context) error {
		attempts++
		InstallAttempts.Inc()
		runErr := env.Scope(func() error {
			out, err := e.runner.Run(ctx, tool, args...)
			if err == nil {
				logger.DebugContext(ctx, "plugin tool output", "output", string(out))
			}
			return err
		})
		if runErr != nil {
			logger.DebugContext(ctx, "plugin install attempt failed",
				"attempt", attempts,
				"max_attempts", e.cfg.Attempts,
				"error", runErr)
			return retry.RetryableError(runErr)
		}
		return nil
	})
	if err != nil {
		return attempts, oops.Code(CodeInstallFailed).
			With("plugin", d.Name).
			With("attempts", attempts).
			Wrapf(err, "failed to install plugin %s after %d attempts", d.Name, attempts)
	}

	installed, lookupErr := e.registry.Lookup(ctx, d.ShortName())
	if lookupErr != nil {
		logger.WarnContext(ctx, "rescan after install failed", "error", lookupErr)
	}
	if lookupErr != nil || installed == nil {
		installed = &plugin.Descriptor{Name: d.ShortName(), Ensure: plugin.EnsurePresent}
	}
	installed.Vendor = d.ParsedName().Vendor
	d.Current = installed

	logger.InfoContext(ctx, "installed plugin",
		"attempts", attempts,
		"plugin_version", installed.Version)
	return attempts, nil
}

func (e *Executor) remove(ctx context.Context, logger *slog.Logger, resolved version.Resolved, d *plugin.DesiredState) (int, error) {
	tool, args, env, err := e.invocation(command.OpRemove, resolved, d)
	if err != nil {
		return 0, oops.Code(CodeRemoveFailed).With("plugin", d.Name).Wrap(err)
	}

	logger.InfoContext(ctx, "removing plugin",
		"tool", tool,
		"env", env.Keys())

	err = env.Scope(func() error {
		_, err := e.runner.Run(ctx, tool, args...)
		return err
	})
	if err != nil {
		return 1, oops.Code(CodeRemoveFailed).
			With("plugin", d.Name).
			Wrapf(err, "failed to remove plugin %s", d.Name)
	}

	d.Current = nil
	logger.InfoContext(ctx, "removed plugin")
	return 1, nil
}
