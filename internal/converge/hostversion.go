// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package converge

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/esplugin/internal/version"
	"github.com/holomush/esplugin/pkg/errutil"
)

// reportedVersion extracts the token from `elasticsearch --version` output,
// e.g. "Version: 7.17.0, Build: default/deb/bee86328705acaa9a6daede7140defd4d9ec56bd/2022-01-28T08:36:04.875279988Z, JVM: 17.0.1".
var reportedVersion = regexp.MustCompile(`Version:\s*([^\s,]+)`)

// resolveVersion determines the host version for this run: the explicit
// version first, then configured candidates, then the binary's own report.
func (e *Executor) resolveVersion(ctx context.Context) (version.Resolved, error) {
	candidates := append([]string{e.cfg.Version}, e.cfg.VersionCandidates...)
	raw, err := version.Guess(candidates...)
	if err != nil && errutil.Code(err) == version.CodeUnguessable && e.cfg.ESBinary != "" {
		reported, probeErr := e.probeVersion(ctx)
		if probeErr != nil {
			slog.WarnContext(ctx, "host version probe failed",
				"binary", e.cfg.ESBinary,
				"error", probeErr)
		} else {
			raw, err = version.Guess(reported)
		}
	}
	if err != nil {
		return version.Resolved{}, oops.Wrapf(err, "resolve Elasticsearch version")
	}

	resolved, err := version.Resolve(raw)
	if err != nil {
		return version.Resolved{}, err
	}

	slog.DebugContext(ctx, "resolved Elasticsearch version",
		"version", resolved.String(),
		"era", resolved.Era().String(),
		"batch", resolved.BatchCapable())
	return resolved, nil
}

func (e *Executor) probeVersion(ctx context.Context) (string, error) {
	out, err := e.runner.Run(ctx, e.cfg.ESBinary, "--version")
	if err != nil {
		return "", err
	}
	if m := reportedVersion.FindStringSubmatch(string(out)); m != nil {
		return m[1], nil
	}
	return strings.TrimSpace(string(out)), nil
}
