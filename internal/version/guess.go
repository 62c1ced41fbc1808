// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package version

import (
	"regexp"
	"strings"

	"github.com/samber/oops"
)

// Error codes returned by this package.
const (
	CodeNoCandidates = "VERSION_NO_CANDIDATES"
	CodeUnguessable  = "VERSION_UNGUESSABLE"
	CodeInvalid      = "VERSION_INVALID"
)

// versionPattern matches the last version-shaped token of a string.
//
// The core is dot-separated runs of digits or single lowercase letters
// ("5.x"), optionally followed by a package revision ("-1") and any number of
// extension segments starting with a letter (".noarch.rpm"). Only the core is
// captured. The expression is anchored at the tail and its quirks are covered
// by the table in guess_test.go; change both together.
var versionPattern = regexp.MustCompile(
	`-?(?P<version>[0-9]+(?:[.](?:[0-9]+|[a-z]))*)(?:-[0-9]+)?(?:[.][a-z][0-9a-z]*)*$`,
)

var versionGroup = versionPattern.SubexpIndex("version")

// Guess returns the version core of the first candidate that matches.
//
// Candidates are examined strictly in order and empty strings are skipped,
// so the argument list is a priority list. Guess fails with
// CodeNoCandidates when called without arguments and with CodeUnguessable
// when no candidate matches.
func Guess(candidates ...string) (string, error) {
	if len(candidates) < 1 {
		return "", oops.Code(CodeNoCandidates).
			Errorf("guess version: wrong number of arguments (0; must be at least 1)")
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		m := versionPattern.FindStringSubmatch(strings.TrimSuffix(candidate, "\n"))
		if m == nil {
			continue
		}
		return m[versionGroup], nil
	}

	return "", oops.Code(CodeUnguessable).
		With("candidates", len(candidates)).
		Errorf("could not determine Elasticsearch version")
}
