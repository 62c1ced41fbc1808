// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package plugin models Elasticsearch plugins: the descriptors found on
// disk, the desired state declared for them, and the registry that matches
// the two.
package plugin

import (
	"strings"
)

// DescriptorFile is the metadata file every installed plugin directory holds.
const DescriptorFile = "plugin-descriptor.properties"

// Ensure is the declared or observed presence of a plugin.
type Ensure string

// Presence values.
const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// Descriptor is the observed state of one installed plugin.
type Descriptor struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Ensure  Ensure `json:"ensure" yaml:"ensure"`
	// Vendor is only known when the descriptor was bound to a record
	// declared as vendor/plugin.
	Vendor     string            `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	SourcePath string            `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// ParseProperties reads a descriptor file body.
//
// Blank lines and lines starting with '#' are ignored. Other lines are split
// on the first '='; keys and values are trimmed. Lines without '=' are not
// stored and their 1-based line numbers are returned in malformed.
func ParseProperties(data []byte) (props map[string]string, malformed []int) {
	props = make(map[string]string)

	for i, raw := range strings.Split(string(data), "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			malformed = append(malformed, lineNo)
			continue
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return props, malformed
}
