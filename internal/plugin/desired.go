// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// CodeManifestInvalid marks desired state that failed validation.
const CodeManifestInvalid = "MANIFEST_INVALID"

// DesiredState is one declared plugin record.
//
// At most one of URL and Source is used; URL wins when both are set. With
// neither, the plugin name itself is the install reference.
type DesiredState struct {
	Name      string   `json:"name" yaml:"name" validate:"required" jsonschema:"minLength=1,description=Plugin reference: name or vendor/plugin[/version]"`
	Ensure    Ensure   `json:"ensure,omitempty" yaml:"ensure,omitempty" validate:"omitempty,oneof=present absent" jsonschema:"enum=present,enum=absent,default=present"`
	URL       string   `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url" jsonschema:"description=Download URL passed to the plugin tool"`
	Source    string   `json:"source,omitempty" yaml:"source,omitempty" jsonschema:"description=Local plugin archive path"`
	Proxy     string   `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url" jsonschema:"description=Proxy URL with optional user:password"`
	ConfigDir string   `json:"configdir,omitempty" yaml:"configdir,omitempty" jsonschema:"description=Elasticsearch configuration directory"`
	JavaOpts  []string `json:"java_opts,omitempty" yaml:"java_opts,omitempty" jsonschema:"description=Replaces ES_JAVA_OPTS for the plugin tool"`
	JavaHome  string   `json:"java_home,omitempty" yaml:"java_home,omitempty" jsonschema:"description=JAVA_HOME for the plugin tool"`
	Instances []string `json:"instances,omitempty" yaml:"instances,omitempty" validate:"dive,required"`

	// Current is the observed descriptor bound by Registry.Prefetch or by a
	// completed convergence. Nil means not installed.
	Current *Descriptor `json:"-" yaml:"-"`
}

// WantPresent reports whether the record asks for the plugin to be installed.
// An empty Ensure means present.
func (d *DesiredState) WantPresent() bool {
	return d.Ensure != EnsureAbsent
}

// Installed reports whether an installed descriptor is bound to the record.
func (d *DesiredState) Installed() bool {
	return d.Current != nil && d.Current.Ensure == EnsurePresent
}

// ParsedName returns the record's name split into its parts.
func (d *DesiredState) ParsedName() Name {
	return ParseName(d.Name)
}

// ShortName returns the on-disk plugin name for the record.
func (d *DesiredState) ShortName() string {
	return d.ParsedName().Short()
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks field constraints on the record.
func (d *DesiredState) Validate() error {
	if err := structValidator().Struct(d); err != nil {
		return oops.Code(CodeManifestInvalid).
			With("plugin", d.Name).
			Wrapf(err, "invalid plugin record %q", d.Name)
	}
	return nil
}
