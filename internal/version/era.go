// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package version

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// Era identifies a generation of the plugin manager's command-line syntax.
type Era int

// Command eras, oldest first.
const (
	EraLegacy  Era = iota // before 2.0.0: bin/plugin, name --url form
	EraInterim            // 2.x: bin/plugin, -D flags as arguments
	EraModern             // everything else: bin/elasticsearch-plugin
)

// String returns the lowercase era name.
func (e Era) String() string {
	switch e {
	case EraLegacy:
		return "legacy"
	case EraInterim:
		return "interim"
	case EraModern:
		return "modern"
	default:
		return "unknown"
	}
}

var (
	legacyRange  = mustConstraint("< 2.0.0")
	interimRange = mustConstraint(">= 2.0.0, < 3.0.0")
	batchRange   = mustConstraint(">= 2.2.0")
)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// Resolved is a host version fixed for the duration of one convergence run.
type Resolved struct {
	raw    string
	parsed *semver.Version
}

// Resolve parses a guessed version token.
//
// Tokens are compared segment-wise on their first three segments. Letter
// segments such as the "x" in "5.x" count as zero; missing segments are
// zero. The leading segment must be numeric.
func Resolve(raw string) (Resolved, error) {
	segments := strings.Split(raw, ".")
	var nums [3]uint64
	for i := 0; i < len(segments) && i < len(nums); i++ {
		n, err := strconv.ParseUint(segments[i], 10, 64)
		if err != nil {
			if i == 0 {
				return Resolved{}, oops.Code(CodeInvalid).
					With("version", raw).
					Wrapf(err, "parse version %q", raw)
			}
			continue
		}
		nums[i] = n
	}

	return Resolved{
		raw:    raw,
		parsed: semver.New(nums[0], nums[1], nums[2], "", ""),
	}, nil
}

// String returns the version as it was guessed.
func (r Resolved) String() string {
	return r.raw
}

// IsZero reports whether r was never resolved.
func (r Resolved) IsZero() bool {
	return r.parsed == nil
}

// Era returns the command era the version belongs to.
func (r Resolved) Era() Era {
	switch {
	case r.parsed == nil:
		return EraModern
	case legacyRange.Check(r.parsed):
		return EraLegacy
	case interimRange.Check(r.parsed):
		return EraInterim
	default:
		return EraModern
	}
}

// BatchCapable reports whether the plugin tool accepts --batch.
func (r Resolved) BatchCapable() bool {
	return r.parsed != nil && batchRange.Check(r.parsed)
}

// Compare compares two version tokens by semantic precedence.
func Compare(a, b string) (int, error) {
	ra, err := Resolve(a)
	if err != nil {
		return 0, err
	}
	rb, err := Resolve(b)
	if err != nil {
		return 0, err
	}
	return ra.parsed.Compare(rb.parsed), nil
}
