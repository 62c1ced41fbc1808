// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package version guesses Elasticsearch versions from loosely formatted
// strings and maps a resolved version onto the plugin command era it implies.
//
// Guessing is deliberately heuristic. Callers supply candidates in priority
// order (an explicit version, a package file name, a download URL) and the
// first candidate whose tail looks like a version wins:
//
//	v, err := version.Guess("", "https://host/elasticsearch-2.4.1.deb")
//	// v == "2.4.1"
//
// The resolved version then selects a [Era] through semantic version
// precedence rather than string comparison.
package version
