// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"regexp"
	"strings"
)

// Name is a plugin reference split into its parts.
//
// References take the form plugin, vendor/plugin or vendor/plugin/version.
type Name struct {
	Vendor  string
	Plugin  string
	Version string
}

var nameVersionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(?:-\S+)?`)

// ParseName splits a plugin reference.
func ParseName(ref string) Name {
	parts := strings.SplitN(ref, "/", 3)
	switch len(parts) {
	case 1:
		return Name{Plugin: parts[0]}
	case 2:
		return Name{Vendor: parts[0], Plugin: parts[1]}
	default:
		return Name{
			Vendor:  parts[0],
			Plugin:  parts[1],
			Version: nameVersionPattern.FindString(parts[2]),
		}
	}
}

// Short returns the name the plugin is installed under.
//
// Vendor-qualified site plugins drop their "elasticsearch-" or "es-"
// repository prefix, so mobz/elasticsearch-head installs as "head". Bare
// names are returned unchanged.
func (n Name) Short() string {
	if n.Vendor == "" {
		return n.Plugin
	}
	for _, prefix := range []string{"elasticsearch-", "es-"} {
		if trimmed, ok := strings.CutPrefix(n.Plugin, prefix); ok && trimmed != "" {
			return trimmed
		}
	}
	return n.Plugin
}
